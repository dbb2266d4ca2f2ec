package structure

import (
	"context"
	"net/http"
	"net/url"

	"github.com/molvista/molvista/internal/domain/molecule"
)

// defaultPubChemBaseURL is the public PUG REST endpoint.
const defaultPubChemBaseURL = "https://pubchem.ncbi.nlm.nih.gov"

// PubChemSource fetches 3D conformers from the PubChem PUG REST API.
type PubChemSource struct {
	baseURL string
	client  *http.Client
}

// NewPubChemSource builds a PubChem source. Empty baseURL selects the public
// endpoint; a nil client gets a default one.
func NewPubChemSource(baseURL string, client *http.Client) *PubChemSource {
	if baseURL == "" {
		baseURL = defaultPubChemBaseURL
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &PubChemSource{baseURL: baseURL, client: client}
}

func (s *PubChemSource) Name() string { return "pubchem" }

// Fetch requests the 3D SDF record for a SMILES identifier. PubChem has no
// 3D conformer for some compounds; those come back as non-200 and surface as
// an ordinary fetch failure.
func (s *PubChemSource) Fetch(ctx context.Context, id molecule.Identifier) (string, error) {
	u := s.baseURL + "/rest/pug/compound/smiles/" + url.PathEscape(id.String()) + "/SDF?record_type=3d"
	return doGet(ctx, s.client, u)
}
