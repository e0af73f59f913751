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
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ankitarsangwan-bit/misrecon/model"
	"github.com/spf13/cobra"
)

// ingestCommands creates the one-shot ingestion command: upload one MIS
// extract, preview the change-set, and optionally commit it in one go.
func ingestCommands(b *misreconInstance) *cobra.Command {
	var mappingFile string
	var commit bool

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "ingest one MIS extract and reconcile it",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			path := args[0]

			var mapping model.ColumnMapping
			if mappingFile != "" {
				raw, err := os.ReadFile(mappingFile)
				if err != nil {
					log.Fatalf("Error reading mapping file: %v", err)
				}
				if err := json.Unmarshal(raw, &mapping); err != nil {
					log.Fatalf("Error parsing mapping file: %v", err)
				}
			}

			file, err := os.Open(path)
			if err != nil {
				log.Fatalf("Error opening file: %v", err)
			}
			defer file.Close()

			uploadID, total, rowErrors, err := b.misrecon.UploadMISData(ctx, file, filepath.Base(path), mapping)
			if err != nil {
				log.Fatalf("Error ingesting file: %v", err)
			}
			fmt.Printf("Staged %d rows under upload %s (%d row errors)\n", total, uploadID, len(rowErrors))
			for _, rowErr := range rowErrors {
				fmt.Printf("  row %d: %s\n", rowErr.Row, rowErr.Reason)
			}

			changeSet, err := b.misrecon.PreviewReconciliation(ctx, uploadID)
			if err != nil {
				log.Fatalf("Error previewing reconciliation: %v", err)
			}
			fmt.Printf("Preview: %d new, %d updated, %d unchanged, %d skipped (%d duplicates collapsed)\n",
				len(changeSet.NewRecords), len(changeSet.UpdatedRecords),
				changeSet.UnchangedCount, len(changeSet.SkippedRecords),
				changeSet.DuplicatesCollapsed)

			if !commit {
				fmt.Println("Dry run only. Re-run with --commit to apply.")
				return
			}

			runID, err := b.misrecon.StartReconciliation(ctx, uploadID, false)
			if err != nil {
				log.Fatalf("Error starting reconciliation: %v", err)
			}
			fmt.Printf("Reconciliation run %s started\n", runID)
		},
	}

	cmd.Flags().StringVar(&mappingFile, "mapping", "", "JSON file mapping source columns to target fields")
	cmd.Flags().BoolVar(&commit, "commit", false, "apply the change-set instead of previewing only")

	return cmd
}
