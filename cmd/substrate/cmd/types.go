package cmd

import (
	"fmt"
	"io"

	substrate "github.com/Swind/go-substrate"
	"github.com/Swind/go-substrate/core"
	"github.com/spf13/cobra"
)

// Demo value types registered by the types command.
type (
	Position   struct{ X, Y, Z float64 }
	Velocity   struct{ DX, DY, DZ float64 }
	Health     struct{ Current, Max int32 }
	Clock      struct{ Tick uint64 }
	Gravity    struct{ G float64 }
	RandomSeed uint64
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Register types in index domains and print their indices",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		opts := substrate.OptionsFromConfig(e.cfg)
		opts.Logger = e.logger
		opts.Metrics = e.metrics()
		rt, err := substrate.NewRuntime(opts)
		if err != nil {
			return err
		}
		if e.poller != nil {
			e.poller.AddIndexer("runtime", rt.Types)
		}

		registerDemoTypes(rt)
		printTypes(cmd.OutOrStdout(), rt)
		return rt.Close()
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}

// registerDemoTypes populates both stores. Velocity is only looked up in
// the resources domain, so it is indexed in the systems domain alone.
func registerDemoTypes(rt *substrate.Runtime) {
	core.Create(rt.Systems, Position{})
	core.Create(rt.Systems, Velocity{DX: 1})
	core.Create(rt.Systems, Health{Current: 100, Max: 100})

	core.Create(rt.Resources, Clock{})
	core.Create(rt.Resources, Gravity{G: 9.81})
	core.Create(rt.Resources, RandomSeed(42))
	_ = core.Has[Velocity](rt.Resources)
}

func printTypes(w io.Writer, rt *substrate.Runtime) {
	fmt.Fprintln(w, "domain=systems")
	for _, info := range core.Registered[substrate.SystemsDomain](rt.Types) {
		fmt.Fprintf(w, "  %d %-40s %016x\n", info.Index, info.Name, info.Fingerprint)
	}
	fmt.Fprintln(w, "domain=resources")
	for _, info := range core.Registered[substrate.ResourcesDomain](rt.Types) {
		fmt.Fprintf(w, "  %d %-40s %016x\n", info.Index, info.Name, info.Fingerprint)
	}
}
