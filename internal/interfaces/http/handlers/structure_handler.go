package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/molvista/molvista/internal/domain/molecule"
)

// StructureFetcher is the retrieval pipeline surface the handler needs.
type StructureFetcher interface {
	Fetch(ctx context.Context, id molecule.Identifier) (*molecule.Structure, error)
}

// NameResolver is the best-effort name lookup surface.
type NameResolver interface {
	Resolve(ctx context.Context, id molecule.Identifier) (string, error)
}

// StructureHandler serves 3D structures and names.
type StructureHandler struct {
	fetcher  StructureFetcher
	resolver NameResolver
}

// NewStructureHandler wires the structure endpoints.
func NewStructureHandler(fetcher StructureFetcher, resolver NameResolver) *StructureHandler {
	return &StructureHandler{fetcher: fetcher, resolver: resolver}
}

// StructureResponse is the structure payload plus display metadata.
type StructureResponse struct {
	SMILES    string        `json:"smiles"`
	Source    string        `json:"source"`
	SDF       string        `json:"sdf"`
	AtomCount int           `json:"atom_count"`
	BondCount int           `json:"bond_count"`
	Info      molecule.Info `json:"info"`
}

// GetStructure handles GET /api/v1/structures/:smiles.
func (h *StructureHandler) GetStructure(c *gin.Context) {
	id, err := molecule.ParseIdentifier(c.Param("smiles"))
	if err != nil {
		respondError(c, err)
		return
	}

	s, err := h.fetcher.Fetch(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StructureResponse{
		SMILES:    id.String(),
		Source:    s.Source,
		SDF:       s.Raw,
		AtomCount: s.AtomCount,
		BondCount: s.BondCount,
		Info:      molecule.InfoFromIdentifier(id).WithStructure(s),
	})
}

// NameResponse carries a resolved IUPAC name.
type NameResponse struct {
	SMILES string `json:"smiles"`
	Name   string `json:"name"`
}

// GetName handles GET /api/v1/structures/:smiles/name.
func (h *StructureHandler) GetName(c *gin.Context) {
	id, err := molecule.ParseIdentifier(c.Param("smiles"))
	if err != nil {
		respondError(c, err)
		return
	}

	name, err := h.resolver.Resolve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, NameResponse{SMILES: id.String(), Name: name})
}
