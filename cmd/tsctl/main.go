package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/tsctl/internal/client"
	"github.com/danmuck/tsctl/internal/config"
	"github.com/danmuck/tsctl/internal/logging"
	"github.com/danmuck/tsctl/internal/mockserver"
	v1 "github.com/danmuck/tsctl/internal/protocol/v1"
)

const usage = `usage: tsctl [flags] <verb> [args]

verbs:
  info                              print the remote server capability response
  reset <dataset=db1,db2> ...       reset state and seed databases from datasets
  docids <database> [collection]... list document ids per collection
  snapshot <collection/docID> ...   snapshot documents, print the snapshot id
  replicate <database> <endpoint>   start a replication, print the replicator id
  status <replicatorID>             poll one replicator
  mock                              run the in-memory mock test server
`

func main() {
	clusterPath := flag.String("cluster", "config.json", "path to the JSON cluster config")
	toolPath := flag.String("tool", "", "optional TOML tool config")
	serverIndex := flag.Int("server", -1, "test server index, overrides tool config")
	continuous := flag.Bool("continuous", false, "replicate: start a continuous replication")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logging.ConfigureRuntime()

	if err := run(*clusterPath, *toolPath, *serverIndex, *continuous, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "tsctl: %v\n", err)
		os.Exit(1)
	}
}

func run(clusterPath, toolPath string, serverIndex int, continuous bool, args []string) error {
	if len(args) == 0 {
		return errors.New("no verb given, try -h")
	}
	verb, args := args[0], args[1:]

	tool, err := loadToolConfig(toolPath)
	if err != nil {
		return err
	}
	if tool.LogLevel != "" {
		logging.SetLevel(tool.LogLevel)
	}

	if verb == "mock" {
		return mockserver.New().Run(tool.MockAddr)
	}

	cfg, err := config.Load(clusterPath)
	if err != nil {
		return err
	}
	if serverIndex < 0 {
		serverIndex = tool.ServerIndex
	}
	if serverIndex >= len(cfg.TestServers) {
		return fmt.Errorf("server index %d out of range, config has %d test servers", serverIndex, len(cfg.TestServers))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(tool.TimeoutSeconds)*time.Second)
	defer cancel()

	c := client.New(cfg.TestServers[serverIndex])
	root, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	if root.Version != cfg.APIVersion {
		fmt.Fprintf(os.Stderr, "tsctl: warning: server speaks v%d, config pins v%d\n", root.Version, cfg.APIVersion)
	}

	switch verb {
	case "info":
		return printJSON(map[string]any{
			"serverID":       root.ServerID,
			"apiVersion":     root.Version,
			"cbl":            root.CBL,
			"libraryVersion": root.LibraryVersion,
			"device":         root.Device,
			"additionalInfo": root.AdditionalInfo,
		})
	case "reset":
		return runReset(ctx, c, args)
	case "docids":
		return runDocIDs(ctx, c, args)
	case "snapshot":
		return runSnapshot(ctx, c, args)
	case "replicate":
		return runReplicate(ctx, c, args, continuous)
	case "status":
		return runStatus(ctx, c, args)
	default:
		return fmt.Errorf("unrecognized verb %q", verb)
	}
}

func runReset(ctx context.Context, c *client.Client, args []string) error {
	body := v1.NewResetBody()
	for _, arg := range args {
		dataset, dbs, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("reset argument %q is not dataset=db1,db2", arg)
		}
		body.AddDataset(dataset, strings.Split(dbs, ","))
	}
	resp, err := c.Reset(ctx, body)
	if err != nil {
		return err
	}
	if resp.Err != nil {
		return fmt.Errorf("reset failed: %s", resp.Err)
	}
	fmt.Println("ok")
	return nil
}

func runDocIDs(ctx context.Context, c *client.Client, args []string) error {
	if len(args) < 1 {
		return errors.New("docids needs a database")
	}
	ids, resp, err := c.GetAllDocumentIDs(ctx, args[0], args[1:]...)
	if err != nil {
		return err
	}
	if resp.Err != nil {
		return fmt.Errorf("getAllDocumentIDs failed: %s", resp.Err)
	}
	return printJSON(ids)
}

func runSnapshot(ctx context.Context, c *client.Client, args []string) error {
	if len(args) == 0 {
		return errors.New("snapshot needs at least one collection/docID")
	}
	entries := make([]v1.SnapshotTarget, 0, len(args))
	for _, arg := range args {
		collection, docID, ok := strings.Cut(arg, "/")
		if !ok {
			return fmt.Errorf("snapshot argument %q is not collection/docID", arg)
		}
		entries = append(entries, v1.SnapshotTarget{Collection: collection, ID: docID})
	}
	id, resp, err := c.SnapshotDocuments(ctx, entries...)
	if err != nil {
		return err
	}
	if resp.Err != nil {
		return fmt.Errorf("snapshotDocuments failed: %s", resp.Err)
	}
	fmt.Println(id)
	return nil
}

func runReplicate(ctx context.Context, c *client.Client, args []string, continuous bool) error {
	if len(args) != 2 {
		return errors.New("replicate needs a database and an endpoint")
	}
	body := v1.NewStartReplicatorBody(args[0], args[1], v1.WithContinuous(continuous))
	id, resp, err := c.StartReplicator(ctx, body)
	if err != nil {
		return err
	}
	if resp.Err != nil {
		return fmt.Errorf("startReplicator failed: %s", resp.Err)
	}
	fmt.Println(id)
	return nil
}

func runStatus(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("status needs a replicator id")
	}
	status, resp, err := c.ReplicatorStatus(ctx, args[0])
	if err != nil {
		return err
	}
	if resp.Err != nil {
		return fmt.Errorf("getReplicatorStatus failed: %s", resp.Err)
	}
	return printJSON(status)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
