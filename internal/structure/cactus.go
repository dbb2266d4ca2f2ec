package structure

import (
	"context"
	"net/http"
	"net/url"

	"github.com/molvista/molvista/internal/domain/molecule"
)

// defaultCactusBaseURL is the NCI/CADD Chemical Identifier Resolver endpoint.
const defaultCactusBaseURL = "https://cactus.nci.nih.gov"

// CactusSource fetches structure files from the NCI Cactus resolver. Cactus
// accepts a wider range of identifiers than PubChem but its 3D coordinates
// are generated rather than experimentally derived, which is why it sits
// after PubChem in the default source order.
type CactusSource struct {
	baseURL string
	client  *http.Client
}

// NewCactusSource builds a Cactus source. Empty baseURL selects the public
// endpoint; a nil client gets a default one.
func NewCactusSource(baseURL string, client *http.Client) *CactusSource {
	if baseURL == "" {
		baseURL = defaultCactusBaseURL
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &CactusSource{baseURL: baseURL, client: client}
}

func (s *CactusSource) Name() string { return "cactus" }

// Fetch requests an SDF file with generated 3D coordinates.
func (s *CactusSource) Fetch(ctx context.Context, id molecule.Identifier) (string, error) {
	u := s.baseURL + "/chemical/structure/" + url.PathEscape(id.String()) + "/file?format=sdf&get3d=true"
	return doGet(ctx, s.client, u)
}
