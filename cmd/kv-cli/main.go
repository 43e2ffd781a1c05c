package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/heysubinoy/pyazkv/api/proto"
	"github.com/heysubinoy/pyazkv/internal/command"
	"github.com/heysubinoy/pyazkv/internal/discovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	addr, err := serverAddr(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to discover leader: %v\n", err)
		os.Exit(1)
	}

	// Connect to gRPC server using passthrough resolver for direct address connection
	conn, err := grpc.NewClient("passthrough:///"+addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	client := proto.NewKVServiceClient(conn)
	resp, err := client.Do(ctx, command.Args(os.Args[1:]))
	if err != nil {
		fmt.Printf("(error) %s\n", status.Convert(err).Message())
		os.Exit(1)
	}

	reply, err := command.FromProto(resp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad reply: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(reply.String())
}

// serverAddr prefers KV_ADDR and otherwise asks mandi for the leader.
func serverAddr(ctx context.Context) (string, error) {
	if v := os.Getenv("KV_ADDR"); v != "" {
		return v, nil
	}

	mandiAddr := os.Getenv("MANDI_ADDR")
	if mandiAddr == "" {
		mandiAddr = "http://127.0.0.1:7000"
	}
	leader, err := discovery.NewClient(mandiAddr).Leader(ctx)
	if err != nil {
		return "", err
	}
	if leader.GRPCAddr == "" {
		return "", fmt.Errorf("leader gRPC address not available")
	}
	return leader.GRPCTarget(), nil
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  kv-cli <command> [args...]")
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  kv-cli SET greeting hello NX")
	fmt.Println("  kv-cli HSET user:1 name ada")
	fmt.Println("  kv-cli INCRBY visits 5")
	fmt.Println("")
	fmt.Println("Environment variables:")
	fmt.Println("  KV_ADDR    - gRPC address of a server; skips discovery when set")
	fmt.Println("  MANDI_ADDR - Mandi discovery service address (default: http://127.0.0.1:7000)")
}
