package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/hittest/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a new hittest project",
	Long: `Initialize a new hittest project in the current directory.

This creates:
  - .hittest.yaml  - Session defaults
  - params.yaml    - Example parameter file with an upload
  - avatar.txt     - File referenced by params.yaml

Examples:
  hittest init
  hittest init ./fixtures --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleParams = `# Parameters are encoded the way a test session sends them.
#   hittest encode params.yaml
#   hittest encode params.yaml --multipart
user:
  name: Larry
  email: larry@example.org
  roles:
    - admin
    - editor
  address:
    city: Portland
    zip: "97201"
avatar: !file avatar.txt
`

const exampleUpload = "Hello from hittest\n"

func initCommand(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	configFile := filepath.Join(dir, ".hittest.yaml")
	paramsFile := filepath.Join(dir, "params.yaml")
	uploadFile := filepath.Join(dir, "avatar.txt")

	if !forceInit {
		for _, f := range []string{configFile, paramsFile, uploadFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("%w: file already exists: %s (use --force to overwrite)", errUsage, f)
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{
		"User-Agent": "hittest/" + version,
	}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(paramsFile, []byte(exampleParams), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", paramsFile)

	if err := os.WriteFile(uploadFile, []byte(exampleUpload), 0644); err != nil {
		return fmt.Errorf("failed to create example upload: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", uploadFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nhittest project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'hittest encode %s --multipart' to see the request body.\n", paramsFile)

	return nil
}
