package commands

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/imamik/stratus/cmd/stratus/handlers"
)

// Instance returns the instance command group.
func Instance() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: "Provision web-serving compute instances",
	}
	cmd.AddCommand(
		instanceLaunch(),
		instanceList(),
		instanceShow(),
		instanceWait(),
		instanceTerminate(),
		instanceExec(),
		securityGroup(),
		keyPair(),
	)
	return cmd
}

func instanceLaunch() *cobra.Command {
	var opts handlers.LaunchOptions
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Launch one instance running a web server",
		Long: `Launch starts exactly one instance that installs and starts a web server on
first boot, optionally publishing a git repository as its document root.

The security group exposing the web port is created or completed first. With
--key-name a missing key pair is generated and its private key saved.

Example:
  stratus instance launch --source https://github.com/example/site.git --wait-http`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.InstanceLaunch(cmd.Context(), configPath, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Name, "name", "", "Name tag (defaults to stratus-<suffix>)")
	f.StringVar(&opts.ImageID, "image", "", "Machine image id")
	f.StringVar(&opts.InstanceType, "type", "", "Instance type")
	f.StringVar(&opts.KeyName, "key-name", "", "Key pair to install; created when missing")
	f.StringVar(&opts.KeyType, "key-type", "", "Algorithm of a newly created key pair: ed25519 or rsa (defaults to compute.key_type)")
	f.StringVar(&opts.KeyOut, "key-out", "", "Where to write a newly created private key")
	f.StringVar(&opts.SecurityGroup, "security-group", "", "Security group name")
	f.StringVar(&opts.VpcID, "vpc", "", "VPC id (defaults to the region's default VPC)")
	f.StringVar(&opts.Package, "package", "", "Web server package, e.g. nginx or httpd")
	f.StringVar(&opts.SourceRepo, "source", "", "Git repository to publish as the document root")
	f.IntVar(&opts.Port, "port", 0, "Web port to open")
	f.BoolVar(&opts.Wait, "wait", false, "Wait until the instance runs")
	f.BoolVar(&opts.WaitHTTP, "wait-http", false, "Wait until the web port accepts connections (implies --wait)")
	f.DurationVar(&opts.Timeout, "timeout", 0, "Maximum time to wait for the running state")
	f.BoolVar(&opts.JSON, "json", false, "Output as JSON")
	return cmd
}

func instanceList() *cobra.Command {
	var jsonOutput, managedOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List instances in the region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.InstanceList(cmd.Context(), configPath, jsonOutput, managedOnly)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&managedOnly, "managed", false, "Only instances launched by stratus")
	return cmd
}

func instanceShow() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.InstanceShow(cmd.Context(), configPath, args[0], jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func instanceWait() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "wait ID",
		Short: "Wait until an instance runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.InstanceWait(cmd.Context(), configPath, args[0], timeout)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Maximum time to wait")
	return cmd
}

func instanceTerminate() *cobra.Command {
	return &cobra.Command{
		Use:   "terminate ID",
		Short: "Terminate an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.InstanceTerminate(cmd.Context(), configPath, args[0])
		},
	}
}

func instanceExec() *cobra.Command {
	var opts handlers.ExecOptions
	cmd := &cobra.Command{
		Use:   "exec ID -- COMMAND",
		Short: "Run a command on a running instance over SSH",
		Long: `Exec connects to the instance's public address with the saved private key
and runs COMMAND, copying its output. The security group must allow SSH:

  stratus instance security-group --port 22

Example:
  stratus instance exec i-0abc -- sudo tail -n 50 /var/log/cloud-init-output.log`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.InstanceExec(cmd.Context(), configPath, args[0], strings.Join(args[1:], " "), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "Login user (defaults to ec2-user)")
	cmd.Flags().StringVarP(&opts.Identity, "identity", "i", "", "Private key file (defaults to the key saved for compute.key_name)")
	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "SSH port")
	return cmd
}

func securityGroup() *cobra.Command {
	var (
		vpcID string
		port  int
	)
	cmd := &cobra.Command{
		Use:   "security-group [NAME]",
		Short: "Ensure a security group exposes the web port",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return handlers.SecurityGroupEnsure(cmd.Context(), configPath, name, vpcID, port)
		},
	}
	cmd.Flags().StringVar(&vpcID, "vpc", "", "VPC id (defaults to the region's default VPC)")
	cmd.Flags().IntVar(&port, "port", 0, "Port to open to the world")
	return cmd
}

func keyPair() *cobra.Command {
	var out, keyType string
	cmd := &cobra.Command{
		Use:   "key-pair NAME",
		Short: "Ensure a key pair is registered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.KeyPairEnsure(cmd.Context(), configPath, args[0], out, keyType)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Where to write a newly created private key")
	cmd.Flags().StringVar(&keyType, "key-type", "", "Algorithm of a newly created key: ed25519 or rsa (defaults to compute.key_type)")
	return cmd
}
