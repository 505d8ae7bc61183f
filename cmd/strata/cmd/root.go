// Package cmd implements the strata command line interface.
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Strata versions block and file volumes",
	Long: `Strata maintains a git like history of point-in-time states of one or
more volumes grouped into a volume set, supports branching via
checkout, and synchronizes that history with remote archival backends.
`,
}

// used to patch over calls to os.Exit() during test
var logFatalln = log.Fatalln
var osExit = os.Exit

func wrapFatalln(msg string, err error) {
	if err != nil {
		logFatalln(fmt.Sprintf("%s: %v", msg, err))
		return
	}
	logFatalln(msg)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log-level", "info", "log level (info, debug or none)")
	_ = viper.BindPFlag("loglevel", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault("metadata", ".strata/metadata")
	viper.SetDefault("volumes", ".strata/volumes")
	viper.SetDefault("loglevel", "info")
	if os.Getenv("STRATA_CONFIG") != "" {
		viper.SetConfigFile(os.Getenv("STRATA_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.strata")
		viper.AddConfigPath("/etc/strata")
		viper.SetConfigName("strata")
	}

	viper.SetEnvPrefix("strata")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
}
