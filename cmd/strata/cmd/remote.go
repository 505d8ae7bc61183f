package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strata-data/strata/pkg/model"
)

// remoteCmd represents the remote related commands
var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Commands to manage remote archival backends",
	Long: `A remote points at an archival backend for push and pull. Parameters
are provider specific and carried opaquely, credentials included.`,
}

var remoteAdd = &cobra.Command{
	Use:   "add",
	Short: "Register a remote on a repository",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		err := r.engine.CreateRemote(context.Background(), params.repo.name, &model.Remote{
			Name:       params.remote.name,
			Provider:   params.remote.provider,
			Properties: properties(params.remote.properties),
		})
		if err != nil {
			wrapFatalln("add remote", err)
		}
	},
}

var remoteList = &cobra.Command{
	Use:   "list",
	Short: "List a repository's remotes",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		remotes, err := r.engine.ListRemotes(context.Background(), params.repo.name)
		if err != nil {
			wrapFatalln("list remotes", err)
		}
		for _, remote := range remotes {
			fmt.Printf("%s , %s\n", remote.Name, remote.Provider)
		}
	},
}

var remoteDelete = &cobra.Command{
	Use:   "delete",
	Short: "Remove a remote configuration",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		if err := r.engine.DeleteRemote(context.Background(), params.repo.name, params.remote.name); err != nil {
			wrapFatalln("delete remote", err)
		}
	},
}

var remoteLog = &cobra.Command{
	Use:   "log",
	Short: "List the commits archived on a remote, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		commits, err := r.engine.ListRemoteCommits(context.Background(),
			params.repo.name, params.remote.name, params.commit.tags)
		if err != nil {
			wrapFatalln("list remote commits", err)
		}
		for _, commit := range commits {
			fmt.Println(commit.ID)
		}
	},
}

func init() {
	requireFlags(remoteAdd,
		addRepoFlag(remoteAdd), addRemoteFlag(remoteAdd), addProviderFlag(remoteAdd))
	addPropertiesFlag(remoteAdd, &params.remote.properties)
	requireFlags(remoteList, addRepoFlag(remoteList))
	requireFlags(remoteDelete, addRepoFlag(remoteDelete), addRemoteFlag(remoteDelete))
	requireFlags(remoteLog, addRepoFlag(remoteLog), addRemoteFlag(remoteLog))
	addTagFlag(remoteLog)

	remoteCmd.AddCommand(remoteAdd)
	remoteCmd.AddCommand(remoteList)
	remoteCmd.AddCommand(remoteDelete)
	remoteCmd.AddCommand(remoteLog)
	rootCmd.AddCommand(remoteCmd)
}
