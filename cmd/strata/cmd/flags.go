package cmd

import (
	"github.com/spf13/cobra"
)

var params struct {
	repo struct {
		name       string
		properties map[string]string
	}
	commit struct {
		id         string
		properties map[string]string
		tags       []string
	}
	volume struct {
		name string
	}
	remote struct {
		name       string
		provider   string
		properties map[string]string
	}
}

func addRepoFlag(cmd *cobra.Command) string {
	const flag = "repo"
	cmd.Flags().StringVar(&params.repo.name, flag, "", "The name of this repository")
	return flag
}

func addPropertiesFlag(cmd *cobra.Command, target *map[string]string) string {
	const flag = "property"
	cmd.Flags().StringToStringVar(target, flag, nil, "Free-form properties as key=value pairs")
	return flag
}

func addCommitFlag(cmd *cobra.Command) string {
	const flag = "commit"
	cmd.Flags().StringVar(&params.commit.id, flag, "", "The commit id")
	return flag
}

func addTagFlag(cmd *cobra.Command) string {
	const flag = "tag"
	cmd.Flags().StringArrayVar(&params.commit.tags, flag, nil, "Tag filter, key or key=value, repeatable and ANDed")
	return flag
}

func addVolumeFlag(cmd *cobra.Command) string {
	const flag = "volume"
	cmd.Flags().StringVar(&params.volume.name, flag, "", "The volume name")
	return flag
}

func addRemoteFlag(cmd *cobra.Command) string {
	const flag = "remote"
	cmd.Flags().StringVar(&params.remote.name, flag, "", "The remote name")
	return flag
}

func addProviderFlag(cmd *cobra.Command) string {
	const flag = "provider"
	cmd.Flags().StringVar(&params.remote.provider, flag, "", "The remote provider kind (localfs, s3, engine)")
	return flag
}

func requireFlags(cmd *cobra.Command, flags ...string) {
	for _, flag := range flags {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			logFatalln(err)
		}
	}
}

// properties converts the CLI's string map to the free-form property
// shape of the model types
func properties(in map[string]string) map[string]interface{} {
	if len(in) == 0 {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
