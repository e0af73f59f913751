/*
Copyright 2025 Misrecon Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ankitarsangwan-bit/misrecon"
	"github.com/ankitarsangwan-bit/misrecon/config"
	"github.com/ankitarsangwan-bit/misrecon/database"
	"github.com/ankitarsangwan-bit/misrecon/internal/notification"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Misrecon represents the CLI application, encapsulating the root Cobra command.
type Misrecon struct {
	cmd *cobra.Command // Root command for the CLI application
}

// misreconInstance holds the service instance and its configuration, shared
// by every subcommand after preRun.
type misreconInstance struct {
	misrecon *misrecon.Misrecon
	cnf      *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec) // Log the recovered panic
		os.Exit(1)        // Exit the program with an error status
	}
}

// preRun sets up the configuration and initializes the service instance
// before running any command.
func preRun(app *misreconInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("misrecon.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		service, err := setupMisrecon(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.misrecon = service
		app.cnf = cnf

		return nil
	}
}

// setupMisrecon connects to the data source and builds the service instance.
func setupMisrecon(cfg *config.Configuration) (*misrecon.Misrecon, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	service, err := misrecon.NewMisrecon(db)
	if err != nil {
		return nil, fmt.Errorf("error creating misrecon: %v", err)
	}
	return service, nil
}

// NewCLI creates the command-line interface for the application.
func NewCLI() *Misrecon {
	var configFile string
	b := &misreconInstance{}

	var rootCmd = &cobra.Command{
		Use:   "misrecon",
		Short: "MIS extract reconciliation engine",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./misrecon.json", "Configuration file for misrecon")

	rootCmd.PersistentPreRunE = preRun(b)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(ingestCommands(b))
	rootCmd.AddCommand(migrateCommands(b))
	rootCmd.AddCommand(configCommands())

	return &Misrecon{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during execution.
func (w Misrecon) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
