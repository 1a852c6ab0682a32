package index

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/bmatcuk/doublestar/v4"
)

// ContentIndex provides full-text search over transcript contents using a
// Bleve in-memory index.
type ContentIndex struct {
	mu    sync.RWMutex
	index bleve.Index
	// fileContents stores raw content for line-level result extraction
	fileContents map[string]string // key: relative path, value: transcript content
}

// NewContentIndex creates a new in-memory Bleve content index.
func NewContentIndex() (*ContentIndex, error) {
	indexMapping := buildIndexMapping()
	bleveIndex, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}

	return &ContentIndex{
		index:        bleveIndex,
		fileContents: make(map[string]string),
	}, nil
}

// TranscriptDocument is the document structure stored in Bleve.
type TranscriptDocument struct {
	Content string   `json:"content"`
	Path    string   `json:"path"`
	Tags    []string `json:"tags"`
}

// buildIndexMapping creates the Bleve index mapping for transcript text.
func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Store = false // Don't store content in Bleve; we keep it in fileContents
	contentFieldMapping.IncludeInAll = true
	docMapping.AddFieldMappingsAt("content", contentFieldMapping)

	pathFieldMapping := bleve.NewTextFieldMapping()
	pathFieldMapping.Store = true
	pathFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("path", pathFieldMapping)

	// Tags are matched verbatim, so they map as keywords
	tagsFieldMapping := bleve.NewKeywordFieldMapping()
	tagsFieldMapping.Store = false
	tagsFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("tags", tagsFieldMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// ReplaceAll rebuilds the index from the result of a completed scan. The new
// index is built off to the side and swapped in under the write lock, so
// concurrent searches see either the old run or the new one, never a mix.
func (ci *ContentIndex) ReplaceAll(documents []TranscriptDocument) error {
	newIndex, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("creating bleve index: %w", err)
	}

	newContents := make(map[string]string, len(documents))
	for _, doc := range documents {
		newContents[doc.Path] = doc.Content
		if err := newIndex.Index(doc.Path, doc); err != nil {
			newIndex.Close()
			return fmt.Errorf("indexing transcript %s: %w", doc.Path, err)
		}
	}

	ci.mu.Lock()
	oldIndex := ci.index
	ci.index = newIndex
	ci.fileContents = newContents
	ci.mu.Unlock()

	if oldIndex != nil {
		if err := oldIndex.Close(); err != nil {
			return fmt.Errorf("closing previous index: %w", err)
		}
	}
	return nil
}

// ContentSearchResult holds the search matches within one transcript.
type ContentSearchResult struct {
	RelativePath string
	Matches      []LineMatch
}

// LineMatch represents a single line match within a transcript.
type LineMatch struct {
	LineNumber int
	LineText   string
	// Context lines before and after the match
	ContextBefore []string
	ContextAfter  []string
}

// SearchOptions configures a content search.
type SearchOptions struct {
	Query        string
	Tag          string // Restrict results to transcripts carrying this tag
	FileGlob     string
	MaxResults   int
	ContextLines int
}

// Search performs a full-text search across all indexed transcripts.
// Query format:
//   - Plain text: match query (word-level matching)
//   - "quoted text": phrase query (exact phrase match)
//   - /regex/: regexp query
//
// An empty query with a Tag filter returns the lines where the tag occurs.
// With neither a query nor a tag there are no match criteria and the search
// returns no results.
func (ci *ContentIndex) Search(options SearchOptions) ([]ContentSearchResult, int, error) {
	if strings.TrimSpace(options.Query) == "" && options.Tag == "" {
		return []ContentSearchResult{}, 0, nil
	}

	ci.mu.RLock()
	defer ci.mu.RUnlock()

	if options.MaxResults <= 0 {
		options.MaxResults = 50
	}
	if options.ContextLines < 0 {
		options.ContextLines = 0
	}

	bleveQuery := buildQuery(options.Query, options.Tag)

	searchRequest := bleve.NewSearchRequest(bleveQuery)
	searchRequest.Size = options.MaxResults * 5 // Get more results because we'll filter and group by file
	searchRequest.Fields = []string{"path"}

	searchResults, err := ci.index.Search(searchRequest)
	if err != nil {
		return nil, 0, fmt.Errorf("searching index: %w", err)
	}

	matchLine := buildLineMatcher(options.Query, options.Tag)

	// Group results by transcript and find matching lines
	resultMap := make(map[string]*ContentSearchResult)
	var orderedPaths []string
	totalMatches := 0

	for _, hit := range searchResults.Hits {
		relativePath := hit.ID
		content, ok := ci.fileContents[relativePath]
		if !ok {
			continue
		}

		if options.FileGlob != "" {
			normalizedGlob := strings.ReplaceAll(options.FileGlob, "\\", "/")
			matched, matchErr := doublestar.Match(normalizedGlob, relativePath)
			if matchErr != nil || !matched {
				continue
			}
		}

		// Find actual matching lines in the content
		lineMatches := findMatchingLines(content, matchLine, options.ContextLines)
		if len(lineMatches) == 0 {
			continue
		}

		totalMatches += len(lineMatches)

		if _, exists := resultMap[relativePath]; !exists {
			resultMap[relativePath] = &ContentSearchResult{
				RelativePath: relativePath,
			}
			orderedPaths = append(orderedPaths, relativePath)
		}
		resultMap[relativePath].Matches = append(resultMap[relativePath].Matches, lineMatches...)

		if len(orderedPaths) >= options.MaxResults {
			break
		}
	}

	results := make([]ContentSearchResult, 0, len(orderedPaths))
	for _, path := range orderedPaths {
		results = append(results, *resultMap[path])
	}

	return results, totalMatches, nil
}

// buildQuery parses the query string into a Bleve query, adding a term filter
// on the tags field when a tag is given.
func buildQuery(queryString string, tag string) query.Query {
	textQuery := buildTextQuery(queryString)
	if tag == "" {
		return textQuery
	}

	tagQuery := bleve.NewTermQuery(tag)
	tagQuery.SetField("tags")
	return bleve.NewConjunctionQuery(textQuery, tagQuery)
}

func buildTextQuery(queryString string) query.Query {
	queryString = strings.TrimSpace(queryString)

	if queryString == "" {
		return bleve.NewMatchAllQuery()
	}

	// Regex query: /pattern/
	if strings.HasPrefix(queryString, "/") && strings.HasSuffix(queryString, "/") && len(queryString) > 2 {
		regexPattern := queryString[1 : len(queryString)-1]
		return bleve.NewRegexpQuery(regexPattern)
	}

	// Phrase query: "exact phrase"
	if strings.HasPrefix(queryString, "\"") && strings.HasSuffix(queryString, "\"") && len(queryString) > 2 {
		phrase := queryString[1 : len(queryString)-1]
		return bleve.NewMatchPhraseQuery(phrase)
	}

	// Default: match query (word-level)
	return bleve.NewMatchQuery(queryString)
}

// buildLineMatcher returns the predicate used to pick result lines out of a
// hit transcript. Plain and phrase queries match case-insensitively as
// substrings, /regex/ queries compile the pattern, and a tag-only search
// matches the bracketed tag verbatim.
func buildLineMatcher(queryString string, tag string) func(string) bool {
	queryString = strings.TrimSpace(queryString)

	if queryString == "" {
		bracketed := "【" + tag + "】"
		return func(line string) bool {
			return strings.Contains(line, bracketed)
		}
	}

	if strings.HasPrefix(queryString, "/") && strings.HasSuffix(queryString, "/") && len(queryString) > 2 {
		pattern, err := regexp.Compile("(?i)" + queryString[1:len(queryString)-1])
		if err == nil {
			return pattern.MatchString
		}
		// Fall through to substring matching on the raw pattern text
		queryString = queryString[1 : len(queryString)-1]
	}

	if strings.HasPrefix(queryString, "\"") && strings.HasSuffix(queryString, "\"") && len(queryString) > 2 {
		queryString = queryString[1 : len(queryString)-1]
	}

	searchTermLower := strings.ToLower(queryString)
	return func(line string) bool {
		return strings.Contains(strings.ToLower(line), searchTermLower)
	}
}

// findMatchingLines walks content line by line and returns the lines the
// matcher accepts, with surrounding context.
func findMatchingLines(content string, matchLine func(string) bool, contextLines int) []LineMatch {
	lines := strings.Split(content, "\n")

	var matches []LineMatch

	for lineIdx, line := range lines {
		if !matchLine(line) {
			continue
		}

		match := LineMatch{
			LineNumber: lineIdx + 1, // 1-based
			LineText:   line,
		}

		// Gather context lines before
		if contextLines > 0 {
			startCtx := lineIdx - contextLines
			if startCtx < 0 {
				startCtx = 0
			}
			for i := startCtx; i < lineIdx; i++ {
				match.ContextBefore = append(match.ContextBefore, lines[i])
			}
		}

		// Gather context lines after
		if contextLines > 0 {
			endCtx := lineIdx + contextLines + 1
			if endCtx > len(lines) {
				endCtx = len(lines)
			}
			for i := lineIdx + 1; i < endCtx; i++ {
				match.ContextAfter = append(match.ContextAfter, lines[i])
			}
		}

		matches = append(matches, match)
	}

	return matches
}

// DocumentCount returns the number of transcripts in the Bleve index.
func (ci *ContentIndex) DocumentCount() uint64 {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	count, _ := ci.index.DocCount()
	return count
}

// Close closes the Bleve index.
func (ci *ContentIndex) Close() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.index.Close()
}
