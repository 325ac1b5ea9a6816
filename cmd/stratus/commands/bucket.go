package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/stratus/cmd/stratus/handlers"
)

// Bucket returns the bucket command group.
func Bucket() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bucket",
		Short: "Manage object storage buckets",
	}
	cmd.AddCommand(bucketCreate(), bucketUpload(), bucketDrain(), bucketDelete(), bucketList(), bucketInspect())
	return cmd
}

func bucketCreate() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a bucket",
		Long: `Create a bucket in the configured region.

Creating a bucket you already own succeeds. When the name is taken by another
account, one retry is made with a random six-character suffix and the bound
name is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.BucketCreate(cmd.Context(), configPath, args[0])
		},
	}
}

func bucketUpload() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "upload BUCKET FILE",
		Short: "Upload a file to a bucket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.BucketUpload(cmd.Context(), configPath, args[0], args[1], key)
		},
	}
	cmd.Flags().StringVarP(&key, "key", "k", "", "Object key (defaults to the file name)")
	return cmd
}

func bucketDrain() *cobra.Command {
	return &cobra.Command{
		Use:   "drain BUCKET",
		Short: "Remove every object and object version from a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.BucketDrain(cmd.Context(), configPath, args[0])
		},
	}
}

func bucketDelete() *cobra.Command {
	return &cobra.Command{
		Use:   "delete BUCKET",
		Short: "Drain and delete a bucket",
		Long: `Delete removes every object version and then the bucket itself.

WARNING: This operation is irreversible.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.BucketDelete(cmd.Context(), configPath, args[0])
		},
	}
}

func bucketList() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.BucketList(cmd.Context(), configPath, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func bucketInspect() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "inspect BUCKET",
		Short: "Show a bucket and its versioning state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.BucketInspect(cmd.Context(), configPath, args[0], jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
