package cmd

import (
	"context"
	"fmt"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/strata-data/strata/pkg/model"
)

// commitCmd represents the commit related commands
var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commands to manage commits",
	Long: `A commit is an immutable named snapshot of the repository's active
volume set plus a free-form property map.`,
}

var commitCreate = &cobra.Command{
	Use:   "create",
	Short: "Snapshot the active volume set as a new commit",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		err := r.engine.CreateCommit(context.Background(), params.repo.name, &model.Commit{
			ID:         params.commit.id,
			Properties: properties(params.commit.properties),
		})
		if err != nil {
			wrapFatalln("create commit", err)
		}
	},
}

var commitList = &cobra.Command{
	Use:   "list",
	Short: "List commits, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		commits, err := r.engine.ListCommits(context.Background(), params.repo.name, params.commit.tags)
		if err != nil {
			wrapFatalln("list commits", err)
		}
		for _, commit := range commits {
			fmt.Println(commit.ID)
		}
	},
}

var commitGet = &cobra.Command{
	Use:   "get",
	Short: "Show one commit and its properties",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		commit, err := r.engine.GetCommit(context.Background(), params.repo.name, params.commit.id)
		if err != nil {
			wrapFatalln("get commit", err)
		}
		fmt.Println(commit.ID)
		for k, v := range commit.Properties {
			fmt.Printf("  %s: %v\n", k, v)
		}
	},
}

var commitUpdate = &cobra.Command{
	Use:   "update",
	Short: "Replace a commit's properties",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		err := r.engine.UpdateCommit(context.Background(), params.repo.name, &model.Commit{
			ID:         params.commit.id,
			Properties: properties(params.commit.properties),
		})
		if err != nil {
			wrapFatalln("update commit", err)
		}
	},
}

var commitDelete = &cobra.Command{
	Use:   "delete",
	Short: "Delete a commit's metadata record",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		if err := r.engine.DeleteCommit(context.Background(), params.repo.name, params.commit.id); err != nil {
			wrapFatalln("delete commit", err)
		}
	},
}

var commitStatus = &cobra.Command{
	Use:   "status",
	Short: "Show space accounting for a commit",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		status, err := r.engine.GetCommitStatus(context.Background(), params.repo.name, params.commit.id)
		if err != nil {
			wrapFatalln("get commit status", err)
		}
		fmt.Printf("logical: %s\n", units.HumanSize(float64(status.LogicalSize)))
		fmt.Printf("actual: %s\n", units.HumanSize(float64(status.ActualSize)))
		fmt.Printf("unique: %s\n", units.HumanSize(float64(status.UniqueSize)))
		fmt.Printf("ready: %t\n", status.Ready)
		if status.Error != "" {
			fmt.Printf("error: %s\n", status.Error)
		}
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Branch the repository from an existing commit",
	Long: `Checkout clones the commit's volumes into a fresh volume set and
atomically makes it the repository's active volume set. The previous
active set is kept until garbage collected.`,
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		vs, err := r.engine.Checkout(context.Background(), params.repo.name, params.commit.id)
		if err != nil {
			wrapFatalln("checkout", err)
		}
		fmt.Println(vs)
	},
}

func init() {
	requireFlags(commitCreate, addRepoFlag(commitCreate), addCommitFlag(commitCreate))
	addPropertiesFlag(commitCreate, &params.commit.properties)
	requireFlags(commitList, addRepoFlag(commitList))
	addTagFlag(commitList)
	requireFlags(commitGet, addRepoFlag(commitGet), addCommitFlag(commitGet))
	requireFlags(commitUpdate, addRepoFlag(commitUpdate), addCommitFlag(commitUpdate))
	addPropertiesFlag(commitUpdate, &params.commit.properties)
	requireFlags(commitDelete, addRepoFlag(commitDelete), addCommitFlag(commitDelete))
	requireFlags(commitStatus, addRepoFlag(commitStatus), addCommitFlag(commitStatus))
	requireFlags(checkoutCmd, addRepoFlag(checkoutCmd), addCommitFlag(checkoutCmd))

	commitCmd.AddCommand(commitCreate)
	commitCmd.AddCommand(commitList)
	commitCmd.AddCommand(commitGet)
	commitCmd.AddCommand(commitUpdate)
	commitCmd.AddCommand(commitDelete)
	commitCmd.AddCommand(commitStatus)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(checkoutCmd)
}
