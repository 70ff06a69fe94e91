// cmd/registerapp/main.go - register a directory application, add a client
// secret and store the resulting credential.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/windowsadmins/adminkit/pkg/appreg"
	"github.com/windowsadmins/adminkit/pkg/cli"
	"github.com/windowsadmins/adminkit/pkg/credstore"
	"github.com/windowsadmins/adminkit/pkg/logging"
	"github.com/windowsadmins/adminkit/pkg/output"
)

// clientSecretEnv supplies the operator's own client secret without putting it on the command line.
const clientSecretEnv = "ADMINKIT_CLIENT_SECRET"

type options struct {
	name             string
	audience         string
	secretName       string
	lifetimeDays     int
	servicePrincipal bool
	tenant           string
	clientID         string
	deviceCode       bool
	recipients       []string
	out              string
	showSecret       bool
}

// registrar is satisfied by *appreg.Registrar.
type registrar interface {
	Register(ctx context.Context, req appreg.Request) (*appreg.Result, error)
}

// newRegistrar signs in and returns a Graph-backed registrar.
var newRegistrar = func(auth appreg.Auth) (registrar, error) {
	cred, err := appreg.NewCredential(auth)
	if err != nil {
		return nil, fmt.Errorf("setting up directory sign-in: %w", err)
	}
	adapter, err := appreg.NewAdapter(cred)
	if err != nil {
		return nil, fmt.Errorf("setting up the directory client: %w", err)
	}
	return &appreg.Registrar{Adapter: adapter}, nil
}

func main() {
	os.Exit(run(cli.Args(), os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	tool := cli.NewCommon("registerapp", "--name <display name> [flags]")
	var opts options
	tool.Flags.StringVar(&opts.name, "name", "", "Display name of the application to register.")
	tool.Flags.StringVar(&opts.audience, "audience", appreg.AudienceMyOrg, "Sign-in audience ("+appreg.AudienceMyOrg+" or "+appreg.AudienceMultiOrg+").")
	tool.Flags.StringVar(&opts.secretName, "secret-name", "", "Display name of the new client secret.")
	tool.Flags.IntVar(&opts.lifetimeDays, "lifetime-days", 0, "Days until the new secret expires (default from configuration).")
	tool.Flags.BoolVar(&opts.servicePrincipal, "service-principal", true, "Create the service principal if it does not exist.")
	tool.Flags.StringVar(&opts.tenant, "tenant", "", "Directory tenant ID (default from configuration).")
	tool.Flags.StringVar(&opts.clientID, "client-id", "", "Client ID to sign in with (default from configuration).")
	tool.Flags.BoolVar(&opts.deviceCode, "device-code", false, "Sign in interactively with a device code.")
	tool.Flags.StringSliceVar(&opts.recipients, "recipient", nil, "age public key to encrypt the stored credential to (repeatable).")
	tool.Flags.StringVar(&opts.out, "out", "", "Write the credential here instead of the configured CredentialPath.")
	tool.Flags.BoolVar(&opts.showSecret, "show-secret", false, "Print the new secret to the console.")
	if code, done := tool.Parse(args); done {
		return code
	}
	defer logging.CloseLogger()

	if opts.name == "" && tool.Flags.NArg() > 0 {
		opts.name = tool.Flags.Arg(0)
	}
	if opts.name == "" {
		tool.Flags.Usage()
		return cli.ExitUsage
	}
	cfg := tool.Config
	if opts.tenant == "" {
		opts.tenant = cfg.TenantID
	}
	if opts.clientID == "" {
		opts.clientID = cfg.ClientID
	}
	if len(opts.recipients) == 0 {
		opts.recipients = cfg.CredentialRecipients
	}
	if opts.out == "" {
		opts.out = cfg.CredentialPath
	}
	lifetime := cfg.SecretLifetime()
	if opts.lifetimeDays > 0 {
		lifetime = time.Duration(opts.lifetimeDays) * 24 * time.Hour
	}

	// A secret minted with nowhere to store it cannot be recovered.
	if _, err := credstore.ParseRecipients(opts.recipients); err != nil {
		return tool.Fail("Invalid credential recipient", err)
	}

	reg, err := newRegistrar(appreg.Auth{
		TenantID:     opts.tenant,
		ClientID:     opts.clientID,
		ClientSecret: os.Getenv(clientSecretEnv),
		DeviceCode:   opts.deviceCode,
		Prompt:       os.Stderr,
	})
	if err != nil {
		return tool.Fail("Failed to connect to the directory", err)
	}

	ctx, cancel := cli.Context()
	defer cancel()

	res, err := reg.Register(ctx, appreg.Request{
		DisplayName:            opts.name,
		SignInAudience:         opts.audience,
		SecretName:             opts.secretName,
		SecretLifetime:         lifetime,
		CreateServicePrincipal: opts.servicePrincipal,
	})
	if err != nil {
		return tool.Fail("Failed to register application", err)
	}

	stored := credstore.Credential{
		TenantID:           opts.tenant,
		DisplayName:        opts.name,
		AppID:              res.AppID,
		ObjectID:           res.ObjectID,
		ServicePrincipalID: res.ServicePrincipalID,
		SecretID:           res.SecretID,
		Secret:             res.Secret,
		Expires:            res.Expires,
		Created:            time.Now().UTC(),
	}
	if err := credstore.Save(opts.out, stored, opts.recipients); err != nil {
		logging.Error("Secret added but not stored", "appId", res.AppID, "secretId", res.SecretID, "path", opts.out)
		tool.Console.Error("Secret %s was added to application %s but could not be stored; revoke it in the directory.",
			res.SecretID, res.AppID)
		return tool.Fail("Failed to store credential", err)
	}
	logging.Info("Stored application credential", "path", opts.out, "encrypted", len(opts.recipients) > 0)

	status := "existing"
	if res.Created {
		status = "created"
	}
	pairs := []output.Pair{
		{Key: "Application", Value: opts.name + " (" + status + ")"},
		{Key: "Application ID", Value: res.AppID},
		{Key: "Object ID", Value: res.ObjectID},
	}
	if res.ServicePrincipalID != "" {
		pairs = append(pairs, output.Pair{Key: "Service principal", Value: res.ServicePrincipalID})
	}
	pairs = append(pairs,
		output.Pair{Key: "Secret ID", Value: res.SecretID},
		output.Pair{Key: "Expires", Value: res.Expires.Format(time.RFC3339)},
		output.Pair{Key: "Credential file", Value: opts.out},
	)
	// The export never carries the secret; --show-secret is console only.
	shown := pairs
	if opts.showSecret {
		shown = append(pairs[:len(pairs):len(pairs)], output.Pair{Key: "Secret", Value: res.Secret})
	}
	if err := output.RenderPairs(stdout, shown); err != nil {
		return tool.Fail("Failed to write summary", err)
	}
	if err := tool.Exported(output.PairHeader, output.PairRows(pairs), pairs); err != nil {
		return tool.Fail("Failed to export summary", err)
	}
	if len(opts.recipients) == 0 {
		tool.Console.Warning("Credential stored unencrypted; configure CredentialRecipients to seal it with age.")
	}
	return cli.ExitOK
}
