package licensing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/adminkit/pkg/download"
	"github.com/windowsadmins/adminkit/pkg/retry"
)

const sampleCSV = "\xef\xbb\xbfProduct_Display_Name,String_Id,GUID,Service_Plan_Name,Service_Plan_Id,Service_Plans_Included_Friendly_Names\n" +
	"M365 E5,SPE_E5,guid-1,MDE,plan-1,Defender for Endpoint\n" +
	"M365 E5,SPE_E5,guid-1,TEAMS1,plan-2,Teams\n" +
	"\"M365 Business, Premium\",SPB,guid-2,TEAMS1,plan-2,Teams\n" +
	",ORPHAN,guid-3,X,plan-3,Orphan plan\n" +
	"Empty Service,EMPTY,guid-4,X,plan-4,\n"

func TestParseCatalog(t *testing.T) {
	records, err := ParseCatalog(strings.NewReader(sampleCSV), DefaultColumns())
	require.NoError(t, err)

	assert.Equal(t, []MembershipRecord{
		{LicenseName: "M365 E5", ServiceName: "Defender for Endpoint"},
		{LicenseName: "M365 E5", ServiceName: "Teams"},
		{LicenseName: "M365 Business, Premium", ServiceName: "Teams"},
	}, records)
}

func TestParseCatalogHeaderCase(t *testing.T) {
	data := "product_display_name,SERVICE_PLANS_INCLUDED_FRIENDLY_NAMES\nA,B\n"
	records, err := ParseCatalog(strings.NewReader(data), DefaultColumns())
	require.NoError(t, err)
	assert.Equal(t, []MembershipRecord{{LicenseName: "A", ServiceName: "B"}}, records)
}

func TestParseCatalogCustomColumns(t *testing.T) {
	data := "Sku,Plan\nA,B\nA,C\n"
	records, err := ParseCatalog(strings.NewReader(data), Columns{License: "Sku", Service: "Plan"})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestParseCatalogErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		message string
	}{
		{name: "empty input", data: "", message: "license catalog is empty"},
		{name: "missing license column", data: "Service_Plans_Included_Friendly_Names\nTeams\n", message: `missing column "Product_Display_Name"`},
		{name: "missing service column", data: "Product_Display_Name\nE5\n", message: `missing column "Service_Plans_Included_Friendly_Names"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog(strings.NewReader(tt.data), DefaultColumns())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCatalogRecords(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	c := &Catalog{
		URL:       srv.URL,
		CachePath: t.TempDir(),
		Download: download.Options{
			MaxAge: time.Hour,
			Retry:  retry.Config{MaxRetries: 1},
		},
	}

	records, err := c.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.FileExists(t, c.Path())

	// A fresh cached copy is reused.
	_, err = c.Records(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	c.Download.Refresh = true
	_, err = c.Records(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestCatalogCacheKeyedByURL(t *testing.T) {
	serve := func(body string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
	}
	first := serve(sampleCSV)
	defer first.Close()
	second := serve("Product_Display_Name,Service_Plans_Included_Friendly_Names\nOther License,Other Service\n")
	defer second.Close()

	cache := t.TempDir()
	opts := download.Options{MaxAge: time.Hour, Retry: retry.Config{MaxRetries: 1}}
	c := &Catalog{URL: first.URL, CachePath: cache, Download: opts}
	_, err := c.Records(context.Background())
	require.NoError(t, err)
	firstPath := c.Path()

	c.URL = second.URL
	assert.NotEqual(t, firstPath, c.Path())
	records, err := c.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []MembershipRecord{{LicenseName: "Other License", ServiceName: "Other Service"}}, records)

	assert.Equal(t, filepath.Dir(firstPath), filepath.Dir(c.Path()))
	assert.True(t, strings.HasPrefix(filepath.Base((&Catalog{}).Path()), catalogFilePrefix+"-"))
}

func TestCatalogRecordsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := &Catalog{
		URL:       srv.URL,
		CachePath: t.TempDir(),
		Download:  download.Options{Retry: retry.Config{MaxRetries: 3, InitialInterval: time.Millisecond}},
	}
	_, err := c.Records(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching license catalog")

	_, statErr := os.Stat(c.Path())
	assert.True(t, os.IsNotExist(statErr))
}
