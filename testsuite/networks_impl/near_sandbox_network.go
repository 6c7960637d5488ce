/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package networks_impl

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/palantir/stacktrace"
	"github.com/sirupsen/logrus"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/contract_runner"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/near_client"
	"github.com/vlmoon99/near-contract-sample-testsuite/testsuite/services_impl/sandbox"
	"io/ioutil"
	"net"
	"os"
	"time"
)

const (
	sandboxHomeDirPrefix = "near-sandbox-"

	timeBetweenNodeStartupPolls = 500 * time.Millisecond
	maxNumNodeStartupPolls      = 120

	devAccountIdFmt  = "dev-%v-%v"
	devAccountIdLen  = 8
	emptyArgsJson    = "{}"
	freePortListener = "127.0.0.1:0"
)

// NearSandboxNetwork hands out sandboxes either by starting a local near-sandbox process per Provision call,
// or by attaching to an already-running node when an RPC URL is configured
type NearSandboxNetwork struct {
	sandboxBinary string

	// Attach mode only
	rpcUrl             string
	rootAccountKeyFile string

	devAccountBalance near_client.NearToken
}

func NewNearSandboxNetwork(sandboxBinary string, devAccountBalance near_client.NearToken) *NearSandboxNetwork {
	return &NearSandboxNetwork{
		sandboxBinary:     sandboxBinary,
		devAccountBalance: devAccountBalance,
	}
}

func NewAttachedNearSandboxNetwork(rpcUrl string, rootAccountKeyFile string, devAccountBalance near_client.NearToken) *NearSandboxNetwork {
	return &NearSandboxNetwork{
		rpcUrl:             rpcUrl,
		rootAccountKeyFile: rootAccountKeyFile,
		devAccountBalance:  devAccountBalance,
	}
}

func (network *NearSandboxNetwork) IsAttached() bool {
	return network.rpcUrl != ""
}

func (network *NearSandboxNetwork) Provision(ctx context.Context) (contract_runner.Sandbox, error) {
	if network.IsAttached() {
		return network.attach(ctx)
	}
	return network.launch(ctx)
}

func (network *NearSandboxNetwork) launch(ctx context.Context) (contract_runner.Sandbox, error) {
	homeDir, err := ioutil.TempDir("", sandboxHomeDirPrefix)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred creating the sandbox home directory")
	}
	ports, err := getFreePorts(2)
	if err != nil {
		os.RemoveAll(homeDir)
		return nil, stacktrace.Propagate(err, "An error occurred picking ports for the sandbox node")
	}
	initializer := sandbox.NewSandboxProcessInitializer(network.sandboxBinary, homeDir, ports[0], ports[1])

	logrus.Info("Launching sandbox node...")
	service, err := sandbox.LaunchSandboxService(ctx, initializer)
	if err != nil {
		os.RemoveAll(homeDir)
		return nil, stacktrace.Propagate(err, "An error occurred launching the sandbox node from binary '%v'", network.sandboxBinary)
	}
	logrus.Info("Sandbox node launched")

	provisioned := &runningSandbox{
		service:           service,
		devAccountBalance: network.devAccountBalance,
	}
	client, err := near_client.DialRpcClient(ctx, service.GetRpcUrl())
	if err != nil {
		provisioned.Destroy()
		return nil, stacktrace.Propagate(err, "An error occurred creating an RPC client for '%v'", service.GetRpcUrl())
	}
	provisioned.client = client

	logrus.Info("Waiting for sandbox node to become available...")
	if err := service.WaitForStartup(ctx, client, timeBetweenNodeStartupPolls, maxNumNodeStartupPolls); err != nil {
		provisioned.Destroy()
		return nil, stacktrace.Propagate(err, "An error occurred waiting for the sandbox node to become available")
	}
	logrus.Info("Sandbox node available")

	root, err := loadRootAccount(service.GetValidatorKeyFilepath(), client)
	if err != nil {
		provisioned.Destroy()
		return nil, err
	}
	provisioned.root = root
	return provisioned, nil
}

func (network *NearSandboxNetwork) attach(ctx context.Context) (contract_runner.Sandbox, error) {
	logrus.Infof("Attaching to sandbox node at '%v'...", network.rpcUrl)
	client, err := near_client.DialRpcClient(ctx, network.rpcUrl)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred creating an RPC client for '%v'", network.rpcUrl)
	}
	status, err := client.Status(ctx)
	if err != nil {
		client.Close()
		return nil, stacktrace.Propagate(err, "An error occurred getting the status of sandbox node '%v'", network.rpcUrl)
	}
	logrus.Infof("Attached to sandbox node on chain '%v' at block %v", status.ChainId, status.SyncInfo.LatestBlockHeight)

	root, err := loadRootAccount(network.rootAccountKeyFile, client)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &runningSandbox{
		client:            client,
		root:              root,
		devAccountBalance: network.devAccountBalance,
	}, nil
}

func loadRootAccount(keyFilepath string, client *near_client.RpcClient) (*near_client.Account, error) {
	rootId, rootKey, err := near_client.LoadAccountKeyFile(keyFilepath)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred loading the root account key from '%v'", keyFilepath)
	}
	logrus.Debugf("Using root account '%v' with key '%v'", rootId, rootKey.PublicKeyString())
	return near_client.NewAccount(rootId, rootKey, client), nil
}

// getFreePorts asks the OS for ports nobody is listening on; they're released before the node binds them
func getFreePorts(count int) ([]int, error) {
	listeners := []net.Listener{}
	defer func() {
		for _, listener := range listeners {
			listener.Close()
		}
	}()
	ports := []int{}
	for i := 0; i < count; i++ {
		listener, err := net.Listen("tcp", freePortListener)
		if err != nil {
			return nil, stacktrace.Propagate(err, "An error occurred listening on a free port")
		}
		listeners = append(listeners, listener)
		ports = append(ports, listener.Addr().(*net.TCPAddr).Port)
	}
	return ports, nil
}

func newDevAccountId(root near_client.AccountID) (near_client.AccountID, error) {
	idSuffix := uuid.New().String()[:devAccountIdLen]
	prefix := fmt.Sprintf(devAccountIdFmt, time.Now().UnixNano()/int64(time.Millisecond), idSuffix)
	return root.SubAccountID(prefix)
}

type runningSandbox struct {
	// Nil in attach mode
	service *sandbox.SandboxService

	client            *near_client.RpcClient
	root              *near_client.Account
	devAccountBalance near_client.NearToken
}

func (provisioned *runningSandbox) DevDeploy(ctx context.Context, wasm []byte) (contract_runner.Contract, error) {
	devAccountId, err := newDevAccountId(provisioned.root.ID())
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred generating a dev account ID under '%v'", provisioned.root.ID())
	}
	devKey, err := near_client.GenerateKeyPair()
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred generating a key for dev account '%v'", devAccountId)
	}

	logrus.Debugf("Creating dev account '%v' with %v...", devAccountId, provisioned.devAccountBalance.HumanString())
	contract, err := provisioned.root.CreateAccountAndDeploy(ctx, devAccountId, devKey, provisioned.devAccountBalance, wasm)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred creating dev account '%v' with the contract deployed", devAccountId)
	}
	return &deployedContract{contract: contract}, nil
}

func (provisioned *runningSandbox) Destroy() error {
	if provisioned.client != nil {
		provisioned.client.Close()
	}
	if provisioned.service == nil {
		return nil
	}
	logrus.Info("Stopping sandbox node...")
	if err := provisioned.service.Stop(); err != nil {
		return stacktrace.Propagate(err, "An error occurred stopping the sandbox node")
	}
	logrus.Info("Sandbox node stopped")
	return nil
}

type deployedContract struct {
	contract *near_client.Contract
}

func (deployed *deployedContract) ID() string {
	return deployed.contract.ID().String()
}

func (deployed *deployedContract) Call(ctx context.Context, descriptor contract_runner.CallDescriptor) (*contract_runner.CallResponse, error) {
	call := deployed.contract.Call(descriptor.FunctionName).
		Deposit(descriptor.Deposit).
		Gas(descriptor.Gas)
	if descriptor.Args == nil {
		call.Args([]byte(emptyArgsJson))
	} else {
		call.ArgsJson(descriptor.Args)
	}

	result, err := call.Transact(ctx)
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred sending '%v' to '%v'", descriptor.FunctionName, deployed.ID())
	}
	logrus.Debugf("Call '%v' committed in transaction '%v', burning %v", descriptor.FunctionName, result.TransactionHash(), result.TotalGasBurnt())

	response := &contract_runner.CallResponse{Logs: result.Logs()}
	if !result.IsSuccess() {
		response.Failure = result.Failure()
		return response, nil
	}
	returnValue, err := result.Raw()
	if err != nil {
		return nil, stacktrace.Propagate(err, "An error occurred decoding the return value of '%v'", descriptor.FunctionName)
	}
	response.ReturnValue = returnValue
	return response, nil
}
