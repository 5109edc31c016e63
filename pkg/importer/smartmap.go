package importer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/royana/catalog-engine/pkg/database"
	"github.com/royana/catalog-engine/pkg/models"
	"github.com/royana/catalog-engine/pkg/repositories"
)

// TaxonomyCache holds attributes and their predefined values resolved or
// created during one import run. It is owned by the job and passed in; the
// same (name, value) pair is never created twice within a run. Cross-run
// races are handled by the database uniqueness constraints.
type TaxonomyCache struct {
	attributes map[string]*models.Attribute                // by name
	values     map[uuid.UUID]map[string]*models.AttributeValue // by attribute, then value
	valueLists map[uuid.UUID]bool                          // attributes whose stored values are loaded
}

// NewTaxonomyCache creates an empty run-scoped cache.
func NewTaxonomyCache() *TaxonomyCache {
	return &TaxonomyCache{
		attributes: make(map[string]*models.Attribute),
		values:     make(map[uuid.UUID]map[string]*models.AttributeValue),
		valueLists: make(map[uuid.UUID]bool),
	}
}

func (c *TaxonomyCache) putAttribute(attr *models.Attribute) {
	c.attributes[attr.Name] = attr
}

func (c *TaxonomyCache) putValue(value *models.AttributeValue) {
	byValue, ok := c.values[value.AttributeID]
	if !ok {
		byValue = make(map[string]*models.AttributeValue)
		c.values[value.AttributeID] = byValue
	}
	byValue[value.Value] = value
}

// SmartMapper resolves classified attributes against the existing taxonomy:
// exact name match first, then fuzzy match above the similarity threshold
// (best score wins), then creation. Values go through the same procedure
// scoped to the resolved attribute.
type SmartMapper struct {
	attrs     repositories.AttributeRepository
	cache     *TaxonomyCache
	threshold float64
	pool      database.Querier
	logger    *zap.Logger
}

// NewSmartMapper builds a mapper around a run-scoped cache. Taxonomy writes
// go through pool, outside any row transaction: attributes and values are
// shared across rows, and the cache must never hold IDs a row rollback could
// erase. Creation is idempotent, so entries from failed rows are harmless.
func NewSmartMapper(attrs repositories.AttributeRepository, cache *TaxonomyCache, threshold float64, pool database.Querier, logger *zap.Logger) *SmartMapper {
	return &SmartMapper{
		attrs:     attrs,
		cache:     cache,
		threshold: threshold,
		pool:      pool,
		logger:    logger.Named("smartmap"),
	}
}

// taxonomyCtx rebinds ctx to the pool querier, keeping cancellation intact.
func (m *SmartMapper) taxonomyCtx(ctx context.Context) context.Context {
	return database.WithQuerier(ctx, m.pool)
}

// Preload fills the cache with every stored attribute so fuzzy matching sees
// the full taxonomy from the first row.
func (m *SmartMapper) Preload(ctx context.Context) error {
	attrs, err := m.attrs.ListAll(m.taxonomyCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to preload attribute taxonomy: %w", err)
	}
	for _, attr := range attrs {
		m.cache.putAttribute(attr)
	}
	m.logger.Debug("taxonomy preloaded", zap.Int("attributes", len(attrs)))
	return nil
}

// ResolveAttribute returns the existing attribute matching the classified
// name, or creates one. The match result is written back to the cache
// immediately.
func (m *SmartMapper) ResolveAttribute(ctx context.Context, prep PreparedAttribute) (*models.Attribute, error) {
	name := prep.DisplayName
	if name == "" {
		name = prep.Name
	}

	if attr, ok := m.cache.attributes[name]; ok {
		return attr, nil
	}

	if match := m.bestAttributeMatch(name); match != nil {
		m.logger.Debug("fuzzy-matched attribute",
			zap.String("name", name),
			zap.String("matched", match.Name))
		// Alias the classified name so the same spelling resolves instantly
		// for the rest of the run.
		m.cache.attributes[name] = match
		return match, nil
	}

	attr := &models.Attribute{
		Code:       GenerateAttributeCode(name),
		Name:       name,
		Type:       prep.Type,
		Filterable: prep.Filterable,
		Importance: prep.Importance,
		Source:     prep.Source,
	}
	if err := m.attrs.GetOrCreate(m.taxonomyCtx(ctx), attr); err != nil {
		return nil, fmt.Errorf("failed to create attribute %q: %w", name, err)
	}

	m.cache.putAttribute(attr)
	return attr, nil
}

// ResolveFixed resolves a canonical attribute with a fixed code, bypassing
// fuzzy matching: canonical names are exact by construction.
func (m *SmartMapper) ResolveFixed(ctx context.Context, name, code string, attrType models.AttributeType, filterable bool, importance int) (*models.Attribute, error) {
	if attr, ok := m.cache.attributes[name]; ok {
		return attr, nil
	}

	attr := &models.Attribute{
		Code:       code,
		Name:       name,
		Type:       attrType,
		Filterable: filterable,
		Importance: importance,
		Source:     models.SourceRule,
	}
	if err := m.attrs.GetOrCreate(m.taxonomyCtx(ctx), attr); err != nil {
		return nil, fmt.Errorf("failed to create attribute %q: %w", name, err)
	}

	m.cache.putAttribute(attr)
	return attr, nil
}

// ResolveValue returns the predefined value for an enumerable attribute,
// fuzzy-matching against its stored values before creating one.
func (m *SmartMapper) ResolveValue(ctx context.Context, attr *models.Attribute, value string) (*models.AttributeValue, error) {
	if byValue, ok := m.cache.values[attr.ID]; ok {
		if v, ok := byValue[value]; ok {
			return v, nil
		}
	}

	if err := m.loadValues(ctx, attr.ID); err != nil {
		return nil, err
	}

	if v, ok := m.cache.values[attr.ID][value]; ok {
		return v, nil
	}

	if match := m.bestValueMatch(attr.ID, value); match != nil {
		m.logger.Debug("fuzzy-matched attribute value",
			zap.String("attribute", attr.Name),
			zap.String("value", value),
			zap.String("matched", match.Value))
		m.cache.values[attr.ID][value] = match
		return match, nil
	}

	created, err := m.attrs.GetOrCreateValue(m.taxonomyCtx(ctx), attr.ID, value)
	if err != nil {
		return nil, fmt.Errorf("failed to create value %q of attribute %q: %w", value, attr.Name, err)
	}
	m.cache.putValue(created)
	return created, nil
}

// loadValues lazily pulls an attribute's stored values into the cache, once
// per attribute per run.
func (m *SmartMapper) loadValues(ctx context.Context, attributeID uuid.UUID) error {
	if m.cache.valueLists[attributeID] {
		return nil
	}

	values, err := m.attrs.ListValues(m.taxonomyCtx(ctx), attributeID)
	if err != nil {
		return fmt.Errorf("failed to list attribute values: %w", err)
	}
	if _, ok := m.cache.values[attributeID]; !ok {
		m.cache.values[attributeID] = make(map[string]*models.AttributeValue)
	}
	for _, v := range values {
		m.cache.putValue(v)
	}
	m.cache.valueLists[attributeID] = true
	return nil
}

func (m *SmartMapper) bestAttributeMatch(name string) *models.Attribute {
	normalized := normalizeForMatch(name)

	var best *models.Attribute
	var bestScore float64
	for _, attr := range m.cache.attributes {
		score := SimilarityRatio(normalized, normalizeForMatch(attr.Name))
		if score >= m.threshold && score > bestScore {
			bestScore = score
			best = attr
		}
	}
	return best
}

func (m *SmartMapper) bestValueMatch(attributeID uuid.UUID, value string) *models.AttributeValue {
	normalized := normalizeForMatch(value)

	var best *models.AttributeValue
	var bestScore float64
	for _, v := range m.cache.values[attributeID] {
		score := SimilarityRatio(normalized, normalizeForMatch(v.Value))
		if score >= m.threshold && score > bestScore {
			bestScore = score
			best = v
		}
	}
	return best
}

var asciiWordPattern = regexp.MustCompile(`[A-Za-z]+`)

// normalizeForMatch lowercases and singularizes English words so "Cabinets"
// and "cabinet" compare equal. CJK text passes through unchanged.
func normalizeForMatch(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	return asciiWordPattern.ReplaceAllStringFunc(lowered, inflection.Singular)
}

var nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
var spacePattern = regexp.MustCompile(`\s+`)

// GenerateAttributeCode derives a storage code from an attribute name:
// non-word characters stripped, spaces collapsed to underscores, uppercased,
// truncated at 50 runes. Empty results fall back to ATTR; name stays the
// natural key, so code collisions after truncation are tolerated.
func GenerateAttributeCode(name string) string {
	code := nonWordPattern.ReplaceAllString(name, "")
	code = spacePattern.ReplaceAllString(strings.TrimSpace(code), "_")
	code = strings.ToUpper(code)

	if code == "" {
		return "ATTR"
	}
	runes := []rune(code)
	if len(runes) > 50 {
		code = string(runes[:50])
	}
	return code
}
