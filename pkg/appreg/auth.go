package appreg

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	abstractions "github.com/microsoft/kiota-abstractions-go"
	azauth "github.com/microsoft/kiota-authentication-azure-go"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
)

// GraphScope requests the permissions already consented for the caller.
const GraphScope = "https://graph.microsoft.com/.default"

// Auth selects how the operator signs in to the directory.
type Auth struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// DeviceCode prompts on Prompt for an interactive device code sign-in.
	DeviceCode bool
	Prompt     io.Writer
}

// NewCredential builds a token credential: client secret when one is given,
// device code when requested, otherwise the default Azure credential chain.
func NewCredential(auth Auth) (azcore.TokenCredential, error) {
	switch {
	case auth.ClientSecret != "":
		if auth.TenantID == "" || auth.ClientID == "" {
			return nil, fmt.Errorf("client secret sign-in needs both a tenant ID and a client ID")
		}
		return azidentity.NewClientSecretCredential(auth.TenantID, auth.ClientID, auth.ClientSecret, nil)
	case auth.DeviceCode:
		prompt := auth.Prompt
		if prompt == nil {
			prompt = io.Discard
		}
		return azidentity.NewDeviceCodeCredential(&azidentity.DeviceCodeCredentialOptions{
			TenantID: auth.TenantID,
			ClientID: auth.ClientID,
			UserPrompt: func(ctx context.Context, msg azidentity.DeviceCodeMessage) error {
				_, err := fmt.Fprintln(prompt, msg.Message)
				return err
			},
		})
	default:
		return azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
			TenantID: auth.TenantID,
		})
	}
}

// NewAdapter returns a Graph request adapter authenticated with cred.
func NewAdapter(cred azcore.TokenCredential) (abstractions.RequestAdapter, error) {
	provider, err := azauth.NewAzureIdentityAuthenticationProviderWithScopes(cred, []string{GraphScope})
	if err != nil {
		return nil, fmt.Errorf("creating Graph authentication provider: %w", err)
	}
	adapter, err := msgraphsdk.NewGraphRequestAdapter(provider)
	if err != nil {
		return nil, fmt.Errorf("creating Graph request adapter: %w", err)
	}
	return adapter, nil
}
