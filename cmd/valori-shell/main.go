// Command valori-shell is an interactive REPL over a single Kernel, for
// exploring a data directory or trying out commands by hand. It is not a
// production client: every command runs through the same commit
// pipeline a real embedder would use, but there is no scripting support
// beyond line history.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/valori-dev/valori/internal/config"
	"github.com/valori-dev/valori/pkg/commit"
	"github.com/valori-dev/valori/pkg/fxp"
	"github.com/valori-dev/valori/pkg/kernel"
	"github.com/valori-dev/valori/pkg/recovery"
	"github.com/valori-dev/valori/pkg/vecmath"
)

func main() {
	dataDir := pflag.String("data-dir", "", "directory holding snapshot/log/lock files (required)")
	configPath := pflag.String("config", "", "hujson config file describing dim/capacities/index kind (required)")
	pflag.Parse()

	if *dataDir == "" || *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: valori-shell --data-dir <dir> --config <file>")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}

	k, err := recovery.Load(*dataDir, cfg)
	if err != nil {
		fatal(err)
	}

	ctx := context.Background()

	pipeline, err := commit.Open(ctx, k, dataDirLog(*dataDir), recovery.LockPath(*dataDir))
	if err != nil {
		fatal(err)
	}
	defer pipeline.Close()

	runRepl(k, pipeline)
}

func dataDirLog(dataDir string) string { return filepath.Join(dataDir, "log") }

func runRepl(k *kernel.Kernel, pipeline *commit.Pipeline) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("valori> ")
		if err != nil {
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		if !dispatch(k, pipeline, input) {
			return
		}
	}
}

// dispatch runs one command line, returning false to end the REPL.
func dispatch(k *kernel.Kernel, pipeline *commit.Pipeline, input string) bool {
	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit":
		return false

	case "insert":
		runInsert(k, pipeline, args)

	case "delete":
		runDelete(pipeline, args)

	case "node":
		runCreateNode(pipeline, args)

	case "edge":
		runCreateEdge(pipeline, args)

	case "search":
		runSearch(k, args)

	case "stats":
		printYAML(k.Stats())

	case "describe":
		printYAML(describe(k))

	default:
		fmt.Printf("unknown command %q\n", cmd)
	}

	return true
}

func runInsert(k *kernel.Kernel, pipeline *commit.Pipeline, args []string) {
	vector, err := parseVector(args, k.Config().Dim)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	result, err := pipeline.Commit([]kernel.Command{kernel.InsertRecord{Vector: vector}})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Printf("inserted record %d (state hash %x)\n", result.Assignments[0].RecordID, result.StateHash)
}

func runDelete(pipeline *commit.Pipeline, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: delete <record-id>")
		return
	}

	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	if _, err := pipeline.Commit([]kernel.Command{kernel.SoftDeleteRecord{ID: kernel.RecordID(id)}}); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("deleted")
}

func runCreateNode(pipeline *commit.Pipeline, args []string) {
	cmd := kernel.CreateNode{}

	if len(args) == 1 {
		recID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Println("error:", err)
			return
		}

		cmd.Record = kernel.RecordID(recID)
		cmd.HasRecord = true
	}

	result, err := pipeline.Commit([]kernel.Command{cmd})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Printf("created node %d\n", result.Assignments[0].NodeID)
}

func runCreateEdge(pipeline *commit.Pipeline, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: edge <from-node-id> <to-node-id>")
		return
	}

	from, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	to, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	result, err := pipeline.Commit([]kernel.Command{kernel.CreateEdge{From: kernel.NodeID(from), To: kernel.NodeID(to)}})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Printf("created edge %d\n", result.Assignments[0].EdgeID)
}

func runSearch(k *kernel.Kernel, args []string) {
	if len(args) < 1 {
		fmt.Println("usage: search <k> <v1> <v2> ...")
		return
	}

	topK, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	vector, err := parseVector(args[1:], k.Config().Dim)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	results, err := k.Search(vector, uint32(topK), nil)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	printYAML(results)
}

func parseVector(fields []string, dim int) (vecmath.Vector, error) {
	if len(fields) != dim {
		return nil, fmt.Errorf("expected %d components, got %d", dim, len(fields))
	}

	vector := make(vecmath.Vector, dim)

	for i, f := range fields {
		parsed, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, err
		}

		s, err := fxp.FromFloat32(float32(parsed))
		if err != nil {
			return nil, err
		}

		vector[i] = s
	}

	return vector, nil
}

// describeDump is what the `describe` command renders: a YAML snapshot
// of the kernel's configuration and live counts, for operators who want
// something more readable than raw search results.
type describeDump struct {
	Config kernel.Config `yaml:"config"`
	Stats  kernel.Stats  `yaml:"stats"`
	Hash   string        `yaml:"state_hash"`
}

func describe(k *kernel.Kernel) describeDump {
	hash := k.StateHash()

	return describeDump{Config: k.Config(), Stats: k.Stats(), Hash: fmt.Sprintf("%x", hash)}
}

func printYAML(v interface{}) {
	out, err := yaml.Marshal(v)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Print(string(out))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
