// pkg/appreg/appreg.go - directory application registration.

package appreg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/google/uuid"
	abstractions "github.com/microsoft/kiota-abstractions-go"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/applications"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"

	"github.com/windowsadmins/adminkit/pkg/logging"
)

// Sign-in audiences accepted by Graph.
const (
	AudienceMyOrg    = "AzureADMyOrg"
	AudienceMultiOrg = "AzureADMultipleOrgs"
)

// DefaultSecretLifetime is used when a Request leaves SecretLifetime unset.
const DefaultSecretLifetime = 180 * 24 * time.Hour

// Request describes the application to register.
type Request struct {
	DisplayName            string
	SignInAudience         string
	SecretName             string
	SecretLifetime         time.Duration
	CreateServicePrincipal bool
}

// Result is the registered application and its new secret.
type Result struct {
	AppID              string
	ObjectID           string
	ServicePrincipalID string
	SecretID           string
	Secret             string
	Expires            time.Time
	// Created is false when an existing application was reused.
	Created bool
}

// Registrar registers applications through Graph.
type Registrar struct {
	Adapter abstractions.RequestAdapter
	Now     func() time.Time
}

// Register finds the application by display name or creates it, ensures the
// service principal when asked, then adds a new password credential.
func (r *Registrar) Register(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.DisplayName) == "" {
		return nil, errors.New("application display name is required")
	}
	if req.SignInAudience == "" {
		req.SignInAudience = AudienceMyOrg
	}
	if req.SecretLifetime <= 0 {
		req.SecretLifetime = DefaultSecretLifetime
	}
	if req.SecretName == "" {
		req.SecretName = req.DisplayName + " secret"
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	client := msgraphsdk.NewGraphServiceClient(r.Adapter)
	res := &Result{}

	app, err := findApplication(ctx, client, req.DisplayName)
	if err != nil {
		return nil, err
	}
	if app == nil {
		logging.Info("Creating application registration", "name", req.DisplayName, "audience", req.SignInAudience)
		newApp := models.NewApplication()
		newApp.SetDisplayName(to.Ptr(req.DisplayName))
		newApp.SetSignInAudience(to.Ptr(req.SignInAudience))
		app, err = client.Applications().Post(ctx, newApp, nil)
		if err != nil {
			return nil, fmt.Errorf("creating application %q: %w", req.DisplayName, graphError(err))
		}
		res.Created = true
	} else {
		logging.Info("Reusing existing application registration", "name", req.DisplayName, "appId", deref(app.GetAppId()))
	}
	res.AppID = deref(app.GetAppId())
	res.ObjectID = deref(app.GetId())
	if res.ObjectID == "" || res.AppID == "" {
		return nil, fmt.Errorf("application %q returned without identifiers", req.DisplayName)
	}

	if req.CreateServicePrincipal {
		res.ServicePrincipalID, err = ensureServicePrincipal(ctx, client, res.AppID, res.Created)
		if err != nil {
			return nil, err
		}
	}

	pc := models.NewPasswordCredential()
	pc.SetDisplayName(to.Ptr(req.SecretName))
	pc.SetEndDateTime(to.Ptr(now().Add(req.SecretLifetime).UTC()))
	body := applications.NewItemAddPasswordPostRequestBody()
	body.SetPasswordCredential(pc)

	secret, err := client.Applications().ByApplicationId(res.ObjectID).AddPassword().Post(ctx, body, nil)
	if err != nil {
		return nil, fmt.Errorf("adding password to application %s: %w", res.AppID, graphError(err))
	}
	res.Secret = deref(secret.GetSecretText())
	if res.Secret == "" {
		return nil, fmt.Errorf("directory returned an empty secret for application %s", res.AppID)
	}
	res.SecretID = uuidString(secret.GetKeyId())
	if end := secret.GetEndDateTime(); end != nil {
		res.Expires = *end
	} else {
		res.Expires = now().Add(req.SecretLifetime).UTC()
	}
	logging.Info("Added application secret", "appId", res.AppID, "secretId", res.SecretID, "expires", res.Expires.Format(time.RFC3339))
	return res, nil
}

func findApplication(ctx context.Context, client *msgraphsdk.GraphServiceClient, name string) (models.Applicationable, error) {
	filter := fmt.Sprintf("displayName eq '%s'", strings.ReplaceAll(name, "'", "''"))
	resp, err := client.Applications().Get(ctx, &applications.ApplicationsRequestBuilderGetRequestConfiguration{
		QueryParameters: &applications.ApplicationsRequestBuilderGetQueryParameters{
			Filter: &filter,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("looking up application %q: %w", name, graphError(err))
	}
	apps := resp.GetValue()
	switch len(apps) {
	case 0:
		return nil, nil
	case 1:
		return apps[0], nil
	default:
		return nil, fmt.Errorf("%d applications are named %q; rename or remove the duplicates", len(apps), name)
	}
}

// ensureServicePrincipal returns the principal's object ID, creating it when
// the application is new or has none yet.
func ensureServicePrincipal(ctx context.Context, client *msgraphsdk.GraphServiceClient, appID string, newApp bool) (string, error) {
	if !newApp {
		sp, err := client.ServicePrincipalsWithAppId(to.Ptr(appID)).Get(ctx, nil)
		if err == nil {
			return deref(sp.GetId()), nil
		}
		if !isNotFound(err) {
			return "", fmt.Errorf("looking up service principal for %s: %w", appID, graphError(err))
		}
	}
	sp := models.NewServicePrincipal()
	sp.SetAppId(to.Ptr(appID))
	created, err := client.ServicePrincipals().Post(ctx, sp, nil)
	if err != nil {
		return "", fmt.Errorf("creating service principal for %s: %w", appID, graphError(err))
	}
	logging.Info("Created service principal", "appId", appID, "id", deref(created.GetId()))
	return deref(created.GetId()), nil
}

// notFoundCode is the directory error code for a missing object.
const notFoundCode = "Request_ResourceNotFound"

func isNotFound(err error) bool {
	var odataErr *odataerrors.ODataError
	if !errors.As(err, &odataErr) {
		return false
	}
	if odataErr.ResponseStatusCode == 404 {
		return true
	}
	main := mainError(odataErr)
	return main != nil && deref(main.GetCode()) == notFoundCode
}

func mainError(odataErr *odataerrors.ODataError) odataerrors.MainErrorable {
	if odataErr.GetBackingStore() == nil {
		return nil
	}
	return odataErr.GetErrorEscaped()
}

// graphError surfaces the directory's own message, which the SDK error string omits.
func graphError(err error) error {
	var odataErr *odataerrors.ODataError
	if errors.As(err, &odataErr) {
		if main := mainError(odataErr); main != nil {
			return fmt.Errorf("%s: %s (%w)", deref(main.GetCode()), deref(main.GetMessage()), err)
		}
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
