package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/akscheck/akscheck/internal/config"
	"github.com/akscheck/akscheck/internal/engine"
	"github.com/akscheck/akscheck/internal/models"
	"github.com/akscheck/akscheck/internal/output"
	"github.com/akscheck/akscheck/internal/policy"
	"github.com/akscheck/akscheck/internal/providers/azure"
	kube "github.com/akscheck/akscheck/internal/providers/kubernetes"
	"github.com/akscheck/akscheck/internal/rulepacks/clustersetup"
	"github.com/akscheck/akscheck/internal/rulepacks/development"
	"github.com/akscheck/akscheck/internal/rulepacks/disasterrecovery"
	"github.com/akscheck/akscheck/internal/rulepacks/imagemanagement"
	"github.com/akscheck/akscheck/internal/rules"
	"github.com/akscheck/akscheck/internal/version"
)

// defaultPolicyFile is looked up in the working directory when --policy is
// not given. Its absence is not an error.
const defaultPolicyFile = "./akscheck.yaml"

func newRootCmd() *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)

	root := &cobra.Command{
		Use:   "akscheck",
		Short: "akscheck — AKS cluster best-practice audit",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(logLevel, logFormat)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	root.AddCommand(newAuditCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

func newAuditCmd() *cobra.Command {
	var (
		resourceGroup    string
		clusterName      string
		subscription     string
		kubeContext      string
		registries       []string
		ignoreNamespaces []string
		requiredLabels   []string
		policyPath       string
		reportFmt        string
		summary          bool
		outputPath       string
		noColor          bool
	)

	cmd := &cobra.Command{
		Use:           "audit",
		Short:         "Audit an AKS cluster against best practices",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := config.NewFileLoader().Load()
			if err != nil {
				return err
			}
			if resourceGroup == "" {
				resourceGroup = fileCfg.Azure.ResourceGroup
			}
			if clusterName == "" {
				clusterName = fileCfg.Azure.ClusterName
			}
			if subscription == "" {
				subscription = fileCfg.Azure.SubscriptionID
			}
			if len(registries) == 0 {
				registries = fileCfg.Audit.Registries
			}
			if len(ignoreNamespaces) == 0 {
				ignoreNamespaces = fileCfg.Audit.IgnoreNamespaces
			}
			if resourceGroup == "" || clusterName == "" {
				return fmt.Errorf("--resource-group and --name are required")
			}

			policyCfg, err := loadPolicy(policyPath)
			if err != nil {
				return err
			}
			if len(requiredLabels) == 0 && policyCfg != nil {
				requiredLabels = policyCfg.Tagging.RequiredLabels
			}

			clientset, dyn, _, err := kube.NewDefaultKubeClientProvider().ClientsForContext(kubeContext)
			if err != nil {
				return fmt.Errorf("connect to cluster: %w", err)
			}

			factory, err := azure.NewClientFactory(subscription)
			if err != nil {
				return err
			}
			mcClient, err := factory.ManagedClusters()
			if err != nil {
				return fmt.Errorf("build managed clusters client: %w", err)
			}

			var (
				regCollector engine.RegistryCollector
				verifier     rules.AcrPullVerifier
			)
			if len(registries) > 0 {
				regClient, err := factory.Registries()
				if err != nil {
					return fmt.Errorf("build registries client: %w", err)
				}
				regCollector = azure.NewRegistryCollector(regClient, resourceGroup)

				raClient, err := factory.RoleAssignments()
				if err != nil {
					return fmt.Errorf("build role assignments client: %w", err)
				}
				verifier = azure.NewRoleAssignmentVerifier(raClient)
			}

			eng := engine.NewAKSEngine(
				kube.NewCollector(clientset, dyn),
				azure.NewClusterCollector(mcClient),
				regCollector,
				buildRegistry(verifier),
				policyCfg,
			)

			report, err := eng.RunAudit(cmd.Context(), engine.AuditOptions{
				ResourceGroup:    resourceGroup,
				ClusterName:      clusterName,
				RegistryNames:    registries,
				IgnoreNamespaces: ignoreNamespaces,
				RequiredLabels:   requiredLabels,
				ReportFormat:     engine.ReportFormat(reportFmt),
			})
			if err != nil {
				return fmt.Errorf("audit failed: %w", err)
			}

			if outputPath != "" {
				if err := writeReportToFile(outputPath, report); err != nil {
					return err
				}
			}

			switch {
			case summary:
				output.RenderSummary(cmd.OutOrStdout(), report, !noColor)
			case reportFmt == "json":
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			default:
				output.RenderTable(cmd.OutOrStdout(), report.Findings, output.TableOptions{Colored: !noColor})
				output.RenderSummary(cmd.OutOrStdout(), report, !noColor)
			}

			// Findings alone never fail the process; only an explicit
			// enforcement policy does.
			if policy.ShouldFail(report.Findings, policyCfg) {
				os.Exit(2)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&resourceGroup, "resource-group", "g", "", "Azure resource group of the AKS cluster (required)")
	cmd.Flags().StringVarP(&clusterName, "name", "n", "", "AKS cluster name (required)")
	cmd.Flags().StringVar(&subscription, "subscription", "", "Azure subscription ID (default: $AZURE_SUBSCRIPTION_ID)")
	cmd.Flags().StringVar(&kubeContext, "context", "", "Kubeconfig context (default: current context)")
	cmd.Flags().StringSliceVar(&registries, "image-registries", nil, "Container registry name(s) to audit")
	cmd.Flags().StringSliceVar(&ignoreNamespaces, "ignore-namespaces", nil, "Namespace(s) to exclude from the audit")
	cmd.Flags().StringSliceVar(&requiredLabels, "required-labels", nil, "Label key(s) every resource must carry (default: app)")
	cmd.Flags().StringVar(&policyPath, "policy", "", "Policy file path (default: ./akscheck.yaml when present)")
	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json or table")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print compact summary only")
	cmd.Flags().StringVar(&outputPath, "output", "", "Write full JSON report to this file path (in addition to stdout output)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable ANSI colors in table output")

	return cmd
}

// buildRegistry registers every rule pack in fixed category order. The
// registration order is the report order.
func buildRegistry(verifier rules.AcrPullVerifier) *rules.DefaultRuleRegistry {
	registry := rules.NewDefaultRuleRegistry()
	for _, r := range development.Rules() {
		registry.Register(r)
	}
	for _, r := range imagemanagement.Rules(verifier) {
		registry.Register(r)
	}
	for _, r := range clustersetup.Rules() {
		registry.Register(r)
	}
	for _, r := range disasterrecovery.Rules() {
		registry.Register(r)
	}
	return registry
}

// allRuleIDs returns the IDs of every registered rule, used to validate
// policy files.
func allRuleIDs() []string {
	var ids []string
	for _, r := range buildRegistry(nil).All() {
		ids = append(ids, r.ID())
	}
	return ids
}

// loadPolicy loads the policy file at path, or the default policy file when
// path is empty and the default exists. The loaded policy is validated
// against the known rule IDs; validation errors are fatal.
func loadPolicy(path string) (*policy.Config, error) {
	if path == "" {
		if _, err := os.Stat(defaultPolicyFile); err != nil {
			return nil, nil
		}
		path = defaultPolicyFile
	}

	cfg, err := policy.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load policy %q: %w", path, err)
	}
	if errs := policy.Validate(cfg, allRuleIDs()); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "policy: %v\n", e)
		}
		return nil, fmt.Errorf("policy %q is invalid (%d error(s))", path, len(errs))
	}
	return cfg, nil
}

// printJSON writes the report as indented JSON to w.
func printJSON(w io.Writer, report *models.AuditReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeReportToFile serialises report as indented JSON and writes it to path,
// creating or overwriting the file. It does not affect stdout output.
func writeReportToFile(path string, report *models.AuditReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report file %q: %w", path, err)
	}
	return nil
}
