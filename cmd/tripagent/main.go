package main

import (
	"flag"
	"fmt"
	"os"

	"tripagent"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to config.yaml")
	host := flag.String("host", "", "listen host (overrides config)")
	port := flag.Int("port", 0, "listen port (overrides config)")
	flag.Parse()

	opts := []tripagent.Option{tripagent.WithConfigFile(*configFile)}
	if *host != "" {
		opts = append(opts, tripagent.WithHost(*host))
	}
	if *port != 0 {
		opts = append(opts, tripagent.WithPort(*port))
	}

	if err := tripagent.New(opts...).Start(); err != nil {
		fmt.Fprintln(os.Stderr, "tripagent:", err)
		os.Exit(1)
	}
}
