package tools

import (
	"context"
	"errors"

	"urbanlex/internal/legal"
	"urbanlex/internal/query"
	"urbanlex/internal/storage"
)

// hierarchyLimit caps the articles returned for one hierarchy unit.
const hierarchyLimit = 15

// HierarchyNavigatorTool resolves a cited Title/Chapter/Section/Subsection
// to the articles under it.
type HierarchyNavigatorTool struct {
	chunks storage.ChunkStore
}

func NewHierarchyNavigator(chunks storage.ChunkStore) *HierarchyNavigatorTool {
	return &HierarchyNavigatorTool{chunks: chunks}
}

func (t *HierarchyNavigatorTool) ID() ToolID { return HierarchyNavigator }

func (t *HierarchyNavigatorTool) Run(ctx context.Context, qc *query.Context) Result {
	ref := qc.Entities.Hierarchy
	if ref == nil {
		return ok(HierarchyNavigator, nil)
	}

	unit, err := t.chunks.Hierarchy(ctx, qc.DocumentType, ref.Type, ref.Number)
	if errors.Is(err, storage.ErrNotFound) {
		ranges, err := validRanges(ctx, t.chunks, qc.DocumentType, ref.Type)
		if err != nil {
			return failed(HierarchyNavigator, err)
		}
		res := ok(HierarchyNavigator, nil)
		res.NotFound = &NotFound{Kind: ref.Type, Requested: []string{ref.Number}, Ranges: ranges}
		return res
	}
	if err != nil {
		return failed(HierarchyNavigator, err)
	}

	articles, err := t.chunks.DescendantArticles(ctx, unit.ID, hierarchyLimit)
	if err != nil {
		return failed(HierarchyNavigator, err)
	}
	cands := make([]Candidate, 0, len(articles)+1)
	cands = append(cands, Candidate{Chunk: unit, RawSimilarity: 1, Source: HierarchyNavigator, ExactMatch: true})
	for i := range articles {
		cands = append(cands, Candidate{Chunk: &articles[i], RawSimilarity: 1, Source: HierarchyNavigator, ExactMatch: true})
	}
	return ok(HierarchyNavigator, cands)
}

// validRanges reports the numbers of kind per document, so a range never mixes
// LUOS and PDUS. An empty docType searches every document. Article ranges keep
// only the first and last number.
func validRanges(ctx context.Context, chunks storage.ChunkStore, docType legal.DocumentType, kind legal.ChunkType) ([]ValidRange, error) {
	docs := []legal.DocumentType{docType}
	if docType == "" {
		docs = []legal.DocumentType{legal.LUOS, legal.PDUS}
	}
	ranges := []ValidRange{}
	for _, d := range docs {
		nums, err := chunks.HierarchyNumbers(ctx, d, kind)
		if err != nil {
			return nil, err
		}
		if len(nums) == 0 {
			continue
		}
		if kind == legal.TypeArticle && len(nums) > 2 {
			nums = []string{nums[0], nums[len(nums)-1]}
		}
		ranges = append(ranges, ValidRange{Document: d, Valid: nums})
	}
	return ranges, nil
}
