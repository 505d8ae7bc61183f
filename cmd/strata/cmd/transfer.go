package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strata-data/strata/pkg/model"
	"github.com/strata-data/strata/pkg/operation"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Archive a commit on a remote",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		runTransfer(r, func(ctx context.Context) (*model.Operation, error) {
			return r.executor.StartPush(ctx, params.repo.name, params.remote.name, params.commit.id)
		})
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Materialize a remote commit locally",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		runTransfer(r, func(ctx context.Context) (*model.Operation, error) {
			return r.executor.StartPull(ctx, params.repo.name, params.remote.name, params.commit.id)
		})
	},
}

// runTransfer submits the operation, waits for a terminal state and
// prints the progress log.
func runTransfer(r *runtime, start func(ctx context.Context) (*model.Operation, error)) {
	ctx := context.Background()
	op, err := start(ctx)
	if err != nil {
		wrapFatalln("submit", err)
		return
	}

	done, err := r.executor.Wait(ctx, params.repo.name, op.ID)
	if err != nil {
		wrapFatalln("wait", err)
		return
	}
	printProgress(r.executor, done)
	if done.State != model.OperationComplete {
		logFatalln(fmt.Sprintf("operation %s %s", done.ID, done.State))
	}
}

func printProgress(executor *operation.Executor, op *model.Operation) {
	entries, err := executor.GetProgress(params.repo.name, op.ID, 0)
	if err != nil {
		return
	}
	for _, entry := range entries {
		switch entry.Type {
		case model.ProgressPercent:
			fmt.Printf("%d%%\n", entry.Percent)
		case model.ProgressMessage, model.ProgressError:
			fmt.Println(entry.Message)
		}
	}
}

func init() {
	requireFlags(pushCmd,
		addRepoFlag(pushCmd), addRemoteFlag(pushCmd), addCommitFlag(pushCmd))
	requireFlags(pullCmd,
		addRepoFlag(pullCmd), addRemoteFlag(pullCmd), addCommitFlag(pullCmd))

	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
}
