package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/wearhome/wearhome/services"
	"github.com/wearhome/wearhome/services/api"
	"github.com/wearhome/wearhome/services/wearable"
)

func registerServices() {
	// register available services
	services.Register(&api.Service{})
	services.Register(&wearable.Service{})
}

func usage() {
	fmt.Println("Usage: wearhome COMMAND [SERVICE]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("   config  filename...   Update config")
	fmt.Println("   run     [service]     Run services")
	fmt.Println("   query   ...           Query services")
	fmt.Println()
}

func main() {
	log.SetOutput(os.Stdout)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	ps := []string{}
	if flag.NArg() > 1 {
		ps = flag.Args()[1:]
	}

	services.SetupLogging()

	command := flag.Args()[0]
	switch command {
	default:
		usage()
	case "config":
		if len(ps) < 1 {
			usage()
			return
		}
		updateConfig(ps)
	case "run":
		if len(ps) == 0 {
			// everything
			ps = []string{"wearable", "api"}
		}
		run(ps)
	case "query":
		if len(ps) == 0 {
			usage()
			return
		}
		runQuery(strings.Join(ps, " "))
	}
}

// Start builtin services
func run(ss []string) {
	services.Setup(strings.Join(ss, ","))
	registerServices()
	services.Launch(ss)
}
