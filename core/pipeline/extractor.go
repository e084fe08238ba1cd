package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/graphrag/helper"
	"github.com/siherrmann/graphrag/model"
)

// HugotExtractor implements ExtractionPort with a local NER model.
// Detects PERSON, ORGANIZATION, LOCATION and MISC entities and derives
// co-occurrence relations between entities of the same sentence.
type HugotExtractor struct {
	session     *hugot.Session
	nerPipeline *pipelines.TokenClassificationPipeline
}

// NewHugotExtractor downloads the NER model if needed and loads it into a
// Go backend hugot session. The returned extractor is safe for reuse across
// documents and must be closed when done.
func NewHugotExtractor() (*HugotExtractor, error) {
	modelName := "KnightsAnalytics/distilbert-NER"
	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}), // Ignore non-entity tokens
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return &HugotExtractor{session: session, nerPipeline: nerPipeline}, nil
}

// Extract runs NER on the text and derives relations between entities that
// share a sentence.
func (e *HugotExtractor) Extract(ctx context.Context, text string) ([]model.Entity, []model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	result, err := e.nerPipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to run NER: %w", err)
	}

	if len(result.Entities) == 0 {
		return nil, nil, nil
	}

	var entities []model.Entity
	for _, entity := range result.Entities[0] {
		name := strings.TrimSpace(entity.Word)
		if name == "" {
			continue
		}
		entities = append(entities, model.Entity{
			Text:  name,
			Label: normalizeEntityLabel(entity.Entity),
			Start: int(entity.Start),
			End:   int(entity.End),
		})
	}

	relations := deriveRelations(text, entities)
	return entities, relations, nil
}

func (e *HugotExtractor) Close() error {
	return e.session.Destroy()
}

// normalizeEntityLabel removes the BIO tagging prefix (B- for beginning,
// I- for inside) from NER labels.
func normalizeEntityLabel(label string) string {
	if strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-") {
		return label[2:]
	}
	return label
}

// deriveRelations builds one relation per unordered pair of entities
// co-occurring in a sentence. The relation type is guessed from the first
// verb-like token of the sentence; when none is found the pair is still
// linked with the generic fallback type. The full sentence is kept as
// provenance context.
func deriveRelations(text string, entities []model.Entity) []model.Relation {
	if len(entities) < 2 {
		return nil
	}

	var relations []model.Relation
	for _, sentence := range splitSentences(text) {
		var inSentence []string
		seen := map[string]bool{}
		for _, entity := range entities {
			if !seen[entity.Text] && strings.Contains(sentence, entity.Text) {
				seen[entity.Text] = true
				inSentence = append(inSentence, entity.Text)
			}
		}
		if len(inSentence) < 2 {
			continue
		}

		relType := firstVerb(sentence)
		if relType == "" {
			relType = "related to"
		}

		for i := 0; i < len(inSentence); i++ {
			for j := i + 1; j < len(inSentence); j++ {
				relations = append(relations, model.Relation{
					Source:  inSentence[i],
					Target:  inSentence[j],
					Type:    relType,
					Context: sentence,
				})
			}
		}
	}

	return relations
}

// splitSentences splits on sentence-ending punctuation followed by a space.
func splitSentences(text string) []string {
	replaced := strings.NewReplacer("! ", "!|", "? ", "?|", ". ", ".|").Replace(text)
	var sentences []string
	for _, sentence := range strings.Split(replaced, "|") {
		sentence = strings.TrimSpace(sentence)
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
	}
	return sentences
}

// auxiliaryVerbs carry no relation semantics and are skipped when looking
// for a relation type.
var auxiliaryVerbs = map[string]bool{
	"is": true, "am": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true,
	"has": true, "have": true, "had": true,
	"do": true, "does": true, "did": true,
	"will": true, "would": true, "shall": true, "should": true,
	"can": true, "could": true, "may": true, "might": true, "must": true,
}

// commonVerbs whitelists frequent relation-bearing verbs that the suffix
// heuristic below would miss.
var commonVerbs = map[string]bool{
	"founded": true, "co-founded": true, "acquired": true, "owns": true,
	"leads": true, "led": true, "runs": true, "ran": true,
	"works": true, "worked": true, "joined": true, "left": true,
	"created": true, "built": true, "wrote": true, "launched": true,
	"studied": true, "graduated": true, "teaches": true, "taught": true,
	"met": true, "married": true, "moved": true, "lives": true, "lived": true,
	"announced": true, "developed": true, "invented": true, "discovered": true,
	"established": true, "published": true, "released": true,
}

// firstVerb returns the first verb-like token of the sentence or "" when
// none is found. Capitalized tokens are skipped as likely proper nouns and
// auxiliaries are skipped as semantically empty.
func firstVerb(sentence string) string {
	for _, token := range strings.Fields(sentence) {
		token = strings.Trim(token, ".,!?;:()'\"")
		if token == "" {
			continue
		}
		lower := strings.ToLower(token)
		if token != lower {
			continue
		}
		if auxiliaryVerbs[lower] {
			continue
		}
		if commonVerbs[lower] {
			return lower
		}
		if len(lower) >= 4 && (strings.HasSuffix(lower, "ed") || strings.HasSuffix(lower, "ing")) {
			return lower
		}
	}
	return ""
}
