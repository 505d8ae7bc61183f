package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strata-data/strata/pkg/model"
)

// repoCmd represents the repo related commands
var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Commands to manage repositories",
	Long: `A repository is a named container for the version history of one
logical dataset.`,
}

var repoCreate = &cobra.Command{
	Use:   "create",
	Short: "Create a named repository",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		err := r.engine.CreateRepository(context.Background(), &model.Repository{
			Name:       params.repo.name,
			Properties: properties(params.repo.properties),
		})
		if err != nil {
			wrapFatalln("create repository", err)
		}
	},
}

var repoList = &cobra.Command{
	Use:   "list",
	Short: "List repositories",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		repos, err := r.engine.ListRepositories(context.Background())
		if err != nil {
			wrapFatalln("list repositories", err)
		}
		for _, repo := range repos {
			fmt.Println(repo.Name)
		}
	},
}

var repoDelete = &cobra.Command{
	Use:   "delete",
	Short: "Delete a repository and all of its history",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		if err := r.engine.DeleteRepository(context.Background(), params.repo.name); err != nil {
			wrapFatalln("delete repository", err)
		}
	},
}

func init() {
	requireFlags(repoCreate, addRepoFlag(repoCreate))
	addPropertiesFlag(repoCreate, &params.repo.properties)
	requireFlags(repoDelete, addRepoFlag(repoDelete))

	repoCmd.AddCommand(repoCreate)
	repoCmd.AddCommand(repoList)
	repoCmd.AddCommand(repoDelete)
	rootCmd.AddCommand(repoCmd)
}
