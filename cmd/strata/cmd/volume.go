package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strata-data/strata/pkg/model"
)

// volumeCmd represents the volume related commands
var volumeCmd = &cobra.Command{
	Use:   "volume",
	Short: "Commands to manage volumes of the active volume set",
}

var volumeCreate = &cobra.Command{
	Use:   "create",
	Short: "Add a volume to the repository's active volume set",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		volume := &model.Volume{Name: params.volume.name}
		if err := r.engine.CreateVolume(context.Background(), params.repo.name, volume); err != nil {
			wrapFatalln("create volume", err)
		}
		fmt.Println(volume.Mountpoint)
	},
}

var volumeList = &cobra.Command{
	Use:   "list",
	Short: "List the volumes of the active volume set",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		volumes, err := r.engine.ListVolumes(context.Background(), params.repo.name)
		if err != nil {
			wrapFatalln("list volumes", err)
		}
		for _, volume := range volumes {
			fmt.Printf("%s , %s\n", volume.Name, volume.Mountpoint)
		}
	},
}

var volumeDelete = &cobra.Command{
	Use:   "delete",
	Short: "Remove a volume from the active volume set",
	Run: func(cmd *cobra.Command, args []string) {
		r := mustRuntime()
		defer r.close()
		if err := r.engine.DeleteVolume(context.Background(), params.repo.name, params.volume.name); err != nil {
			wrapFatalln("delete volume", err)
		}
	},
}

func init() {
	requireFlags(volumeCreate, addRepoFlag(volumeCreate), addVolumeFlag(volumeCreate))
	requireFlags(volumeList, addRepoFlag(volumeList))
	requireFlags(volumeDelete, addRepoFlag(volumeDelete), addVolumeFlag(volumeDelete))

	volumeCmd.AddCommand(volumeCreate)
	volumeCmd.AddCommand(volumeList)
	volumeCmd.AddCommand(volumeDelete)
	rootCmd.AddCommand(volumeCmd)
}
