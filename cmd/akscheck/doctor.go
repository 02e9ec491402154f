package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	azpolicy "github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/akscheck/akscheck/internal/policy"
	kube "github.com/akscheck/akscheck/internal/providers/kubernetes"
)

// armScope is the token scope probed to confirm the credential chain works.
const armScope = "https://management.azure.com/.default"

// DoctorResult is the structured output of akscheck doctor. It can be
// serialised to JSON via --format=json or rendered as a human-readable
// table (default).
type DoctorResult struct {
	Azure struct {
		Credentials    bool   `json:"credentials_ok"`
		SubscriptionID string `json:"subscription_id,omitempty"`
		Error          string `json:"error,omitempty"`
	} `json:"azure"`

	Kubernetes struct {
		KubeconfigOK bool   `json:"kubeconfig_ok"`
		Context      string `json:"context,omitempty"`
		APIReachable bool   `json:"api_reachable"`
		Error        string `json:"error,omitempty"`
	} `json:"kubernetes"`

	Policy struct {
		Present bool     `json:"present"`
		Valid   bool     `json:"valid"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"policy"`

	OverallHealthy bool `json:"overall_healthy"`
}

// azureCredentialChecker probes the Azure credential chain. Tests inject a
// stub; the default resolves the default credential and requests one ARM token.
type azureCredentialChecker func(ctx context.Context) error

func defaultAzureCredentialChecker(ctx context.Context) error {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return err
	}
	_, err = cred.GetToken(ctx, azpolicy.TokenRequestOptions{Scopes: []string{armScope}})
	return err
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Run environment diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			result, err := runDoctor(
				cmd.Context(),
				defaultAzureCredentialChecker,
				kube.NewDefaultKubeClientProvider(),
				cmd.OutOrStdout(),
				format,
			)
			if err != nil {
				// Rendering failure — let Cobra/main handle it.
				return err
			}
			if !result.OverallHealthy {
				// Exit directly so no error text reaches main's
				// fmt.Fprintln(os.Stderr, err) path.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result.
// The returned error covers only rendering failures (e.g. JSON encode error).
// Callers must inspect result.OverallHealthy to determine whether the
// environment is healthy; runDoctor itself never returns an error for an
// unhealthy result so that no error text leaks to callers (such as main).
func runDoctor(ctx context.Context, checkAzure azureCredentialChecker, kubeProvider kube.KubeClientProvider, w io.Writer, format string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, checkAzure, kubeProvider)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a DoctorResult.
// It performs no rendering; callers decide how to present the result.
func collectDoctorResult(ctx context.Context, checkAzure azureCredentialChecker, kubeProvider kube.KubeClientProvider) DoctorResult {
	var result DoctorResult

	// Azure: credential chain → one ARM token request.
	if err := checkAzure(ctx); err != nil {
		result.Azure.Error = err.Error()
	} else {
		result.Azure.Credentials = true
		result.Azure.SubscriptionID = os.Getenv("AZURE_SUBSCRIPTION_ID")
	}

	// Kubernetes: kubeconfig load → context → API reachability probe.
	clientset, _, info, err := kubeProvider.ClientsForContext("")
	if err != nil {
		result.Kubernetes.Error = err.Error()
	} else {
		result.Kubernetes.KubeconfigOK = true
		result.Kubernetes.Context = info.ContextName
		_, err = clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{Limit: 1})
		if err != nil {
			result.Kubernetes.Error = err.Error()
		} else {
			result.Kubernetes.APIReachable = true
		}
	}

	// Policy: stat → load → validate (file is optional).
	_, statErr := os.Stat(defaultPolicyFile)
	if statErr == nil {
		result.Policy.Present = true
		cfg, loadErr := policy.Load(defaultPolicyFile)
		if loadErr != nil {
			result.Policy.Errors = []string{loadErr.Error()}
		} else {
			errs := policy.Validate(cfg, allRuleIDs())
			if len(errs) == 0 {
				result.Policy.Valid = true
			} else {
				for _, e := range errs {
					result.Policy.Errors = append(result.Policy.Errors, e.Error())
				}
			}
		}
	} else if !os.IsNotExist(statErr) {
		// Stat error other than "not found" — treat as present but unreadable.
		result.Policy.Present = true
		result.Policy.Errors = []string{statErr.Error()}
	}

	result.OverallHealthy = result.Azure.Credentials &&
		result.Kubernetes.KubeconfigOK &&
		result.Kubernetes.APIReachable &&
		(!result.Policy.Present || result.Policy.Valid)

	return result
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	fmt.Fprintln(w, "\nAzure:")
	if !result.Azure.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.Azure.Error)
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		if result.Azure.SubscriptionID != "" {
			doctorPrint(w, "Subscription", "OK", result.Azure.SubscriptionID)
		} else {
			doctorPrint(w, "Subscription", "Not set", "export AZURE_SUBSCRIPTION_ID or use --subscription")
		}
	}

	fmt.Fprintln(w, "\nKubernetes:")
	if !result.Kubernetes.KubeconfigOK {
		doctorPrint(w, "Kubeconfig", "FAIL", result.Kubernetes.Error)
		doctorPrint(w, "Current Context", "FAIL", "skipped")
		doctorPrint(w, "API Reachable", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Kubeconfig", "OK", "")
		doctorPrint(w, "Current Context", "OK", result.Kubernetes.Context)
		if result.Kubernetes.APIReachable {
			doctorPrint(w, "API Reachable", "OK", "")
		} else {
			doctorPrint(w, "API Reachable", "FAIL", result.Kubernetes.Error)
		}
	}

	fmt.Fprintln(w, "\nPolicy:")
	if !result.Policy.Present {
		doctorPrint(w, "akscheck.yaml present", "Not found (optional)", "")
	} else {
		doctorPrint(w, "akscheck.yaml present", "YES", "")
		if result.Policy.Valid {
			doctorPrint(w, "Policy valid", "OK", "")
		} else {
			for _, e := range result.Policy.Errors {
				doctorPrint(w, "Policy valid", "FAIL", e)
			}
		}
	}
}

// doctorPrint writes a single diagnostic check line to w.
// When detail is non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
