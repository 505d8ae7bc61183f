package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Destroy volume sets that are neither active nor referenced",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		reaped, err := r.engine.GarbageCollectVolumeSets(context.Background(), params.repo.name)
		if err != nil {
			wrapFatalln("garbage collect", err)
		}
		for _, vs := range reaped {
			fmt.Println(vs)
		}
	},
}

func init() {
	requireFlags(gcCmd, addRepoFlag(gcCmd))
	rootCmd.AddCommand(gcCmd)
}
