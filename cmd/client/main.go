package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/yashs662/SynchroStore/internal/config"
	"github.com/yashs662/SynchroStore/pkg/client"
)

var defaultCommands = []string{
	"PING",
	"SET synchrostore-benchmark:test 123",
	"GET synchrostore-benchmark:test",
	"INCR synchrostore-benchmark:test",
	"DECR synchrostore-benchmark:test",
}

func main() {
	address := flag.String("address", "", "Server address, defaults to the one in the config file")
	configPath := flag.String("config", config.DefaultConfigPath, "Path to the server config file")
	command := flag.String("command", "", "Comma-separated list of commands to send to the server")
	benchmark := flag.Bool("benchmark", false, "Benchmark the command")
	clients := flag.Int("clients", 10, "Number of concurrent clients for benchmarking")
	iterations := flag.Int("iterations", 1000, "Number of iterations per client for benchmarking")

	flag.Parse()

	if *address == "" {
		cfg, err := config.LoadConfigFromPath(*configPath)
		if err != nil {
			cfg = config.Default()
		}
		*address = cfg.Server.Address
	}

	client, err := client.NewClient(*address)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	if *benchmark {
		commands := defaultCommands
		if *command != "" {
			commands = strings.Split(*command, ",")
		}
		results, successfulClients, totalCommands, duration, err := client.Benchmark(commands, *clients, *iterations)
		if err != nil {
			log.Fatalf("Benchmark failed: %v", err)
		}
		printBenchmarkResults(results, successfulClients, totalCommands, duration, *clients, *iterations)
	} else {
		if *command != "" {
			for _, c := range strings.Split(*command, ",") {
				response, err := client.SendCommand(context.Background(), c)
				if err != nil {
					log.Fatalf("Failed to send command: %v", err)
				}
				printResponse(response)
			}
		} else {
			interactiveMode(client)
		}
	}
}

func interactiveMode(c *client.Client) {
	registry := client.NewCommandRegistry()
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Entering interactive mode. Type 'help' for commands, 'exit' to quit.")
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Fatalf("Failed to read input: %v", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		name, args, _ := client.ParseCommand(line)
		local := registry.Execute(name, c, args)
		switch local.ControlFlow {
		case client.EXIT:
			fmt.Println(local.Response)
			return
		case client.CONTINUE:
			fmt.Println(local.Response)
			continue
		}

		response, err := c.SendCommand(context.Background(), line)
		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}
		printResponse(response)
	}
}

func printResponse(response string) {
	if strings.HasPrefix(response, "ERR") {
		color.Red("Response: %s\n", response)
	} else {
		color.Green("Response: %s\n", response)
	}
}

func printBenchmarkResults(results map[string]client.BenchmarkResult, successfulClients, totalCommands int, duration time.Duration, clients, iterations int) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Command", "Min (ms)", "Max (ms)", "Avg (ms)", "P99 (ms)", "Throughput (ops/sec)"})

	commands := make([]string, 0, len(results))
	for command := range results {
		commands = append(commands, command)
	}
	sort.Strings(commands)

	throughput := float64(totalCommands) / duration.Seconds()
	for _, command := range commands {
		result := results[command]
		table.Append([]string{
			command,
			fmt.Sprintf("%.2f", result.Min.Seconds()*1000),
			fmt.Sprintf("%.2f", result.Max.Seconds()*1000),
			fmt.Sprintf("%.2f", result.Avg.Seconds()*1000),
			fmt.Sprintf("%.2f", result.P99.Seconds()*1000),
			fmt.Sprintf("%.2f", throughput),
		})
	}

	table.Render()
	fmt.Printf("Successful clients: %d/%d\n", successfulClients, clients)
	fmt.Printf("Iterations per client: %d\n", iterations)
	fmt.Printf("Total commands executed: %d\n", totalCommands)
	fmt.Printf("Total duration: %.2f seconds\n", duration.Seconds())
}
