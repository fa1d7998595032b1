package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// errSubmissionFailed makes the process exit non-zero after the failure
// has already been printed
var errSubmissionFailed = errors.New("submission failed")

var rootCmd = &cobra.Command{
	Use:           "formctl",
	Short:         "formctl submits the SecureChain website forms from a terminal",
	Long:          `Send contact messages and audit requests to the SecureChain intake API, with the same checks and feedback as the website forms.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errSubmissionFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.formctl.yaml)")
	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "SecureChain API URL")
	rootCmd.PersistentFlags().Duration("timeout", 60*time.Second, "request timeout")
	_ = viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".formctl")
	}

	viper.SetEnvPrefix("FORMCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
