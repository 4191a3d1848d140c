package dnb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const searchResponse = `<?xml version="1.0" encoding="UTF-8"?>
<searchRetrieveResponse xmlns="http://www.loc.gov/zing/srw/">
  <records>
    <record>
      <recordData>
        <record xmlns="http://www.loc.gov/MARC21/slim">
          <datafield tag="020" ind1=" " ind2=" "><subfield code="a">9783551551931</subfield></datafield>
          <datafield tag="100" ind1="1" ind2=" "><subfield code="a">Funke, Cornelia</subfield><subfield code="4">aut</subfield></datafield>
          <datafield tag="245" ind1="1" ind2="0"><subfield code="a">Tintenherz 1 - Tintenwelt</subfield></datafield>
          <datafield tag="830" ind1=" " ind2=" "><subfield code="a">Tintenherz</subfield></datafield>
          <datafield tag="776" ind1="0" ind2="8">
            <subfield code="i">Erscheint auch als Online-Ausgabe</subfield>
            <subfield code="w">(DE-101)1300000001</subfield>
          </datafield>
          <datafield tag="856" ind1="4" ind2="2">
            <subfield code="u">BASEURL/inhalt</subfield>
            <subfield code="3">Inhaltstext</subfield>
          </datafield>
        </record>
      </recordData>
    </record>
  </records>
</searchRetrieveResponse>`

const linkedResponse = `<?xml version="1.0" encoding="UTF-8"?>
<searchRetrieveResponse xmlns="http://www.loc.gov/zing/srw/">
  <records>
    <record>
      <recordData>
        <record xmlns="http://www.loc.gov/MARC21/slim">
          <datafield tag="245" ind1="1" ind2="0"><subfield code="a">Tintenherz</subfield></datafield>
          <datafield tag="830" ind1=" " ind2=" "><subfield code="a">Tintenherz</subfield><subfield code="v">Band 1</subfield></datafield>
        </record>
      </recordData>
    </record>
  </records>
</searchRetrieveResponse>`

func newTestClient(baseURL string) *Client {
	return &Client{
		client:     &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		targetLang: "de",
		log:        zap.NewNop(),
	}
}

func TestClientSearchWithFollowUps(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/inhalt" {
			w.Write([]byte("<html><body><h1>Klappentext</h1><p>Meggie liebt Bücher über alles, genau wie ihr Vater Mo.</p><script>ignored()</script></body></html>"))
			return
		}
		query := r.URL.Query().Get("query")
		switch {
		case strings.HasPrefix(query, "IDN="):
			assert.Equal(t, "IDN=1300000001", query)
			w.Write([]byte(linkedResponse))
		default:
			assert.Equal(t, "WOE=Tintenherz", query)
			assert.Equal(t, "MARC21-xml", r.URL.Query().Get("recordSchema"))
			w.Write([]byte(strings.ReplaceAll(searchResponse, "BASEURL", srv.URL)))
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	results, err := c.Search(context.Background(), "Tintenherz")
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	// Series number recovered from the linked online edition, then the
	// title cleaned with the completed series context.
	assert.Equal(t, "Tintenherz", got.Series)
	assert.Equal(t, "1", got.SeriesNumber)
	assert.Equal(t, "Tintenwelt", got.Title)
	assert.Equal(t, "Funke, Cornelia", got.Author)
	assert.Contains(t, got.Description, "Meggie liebt Bücher")
	assert.NotContains(t, got.Description, "ignored")
	assert.Equal(t, "9783551551931", got.ISBN)
}

func TestClientSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Search(context.Background(), "x")
	assert.Error(t, err)
}

func TestClientFollowUpFailureDegrades(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if strings.HasPrefix(query, "IDN=") || r.URL.Path == "/inhalt" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(strings.ReplaceAll(searchResponse, "BASEURL", srv.URL)))
	}))
	defer srv.Close()

	results, err := newTestClient(srv.URL).Search(context.Background(), "Tintenherz")
	require.NoError(t, err)
	require.Len(t, results, 1)
	// Record survives with the data parsed so far.
	assert.Equal(t, "Tintenherz", results[0].Series)
	assert.Empty(t, results[0].SeriesNumber)
	assert.Empty(t, results[0].Description)
}

func TestStripHTML(t *testing.T) {
	in := `<html><head><style>p{color:red}</style></head><body><p>Erster  Absatz</p><p>Zweiter Absatz</p></body></html>`
	assert.Equal(t, "Erster Absatz Zweiter Absatz", StripHTML(strings.NewReader(in)))
}
