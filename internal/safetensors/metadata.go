package safetensors

import (
	"encoding/json"
	"sort"
	"strings"
)

// Namespace prefixes found in the reserved metadata map. TrainingToolPrefix
// covers fields emitted by the common LoRA training scripts; ModelSpecPrefix
// covers the model-spec standard.
const (
	TrainingToolPrefix = "ss_"
	ModelSpecPrefix    = "modelspec."
)

const maxTriggerWordsPerSet = 10

// Metadata is a typed, read-only view over the container's reserved string
// map. Prefix sub-extraction is validated here, at the parse boundary, so
// consumers never touch the loose map directly. Absent fields yield empty
// results, never errors.
type Metadata struct {
	raw map[string]string
}

func newMetadata(raw map[string]string) Metadata {
	if raw == nil {
		raw = map[string]string{}
	}
	return Metadata{raw: raw}
}

// NewMetadata wraps a raw metadata map. Intended for tests and for sidecar
// formats that surface an equivalent string map.
func NewMetadata(raw map[string]string) Metadata {
	cp := make(map[string]string, len(raw))
	for k, v := range raw {
		cp[k] = v
	}
	return newMetadata(cp)
}

// Empty reports whether the metadata map has no entries.
func (m Metadata) Empty() bool { return len(m.raw) == 0 }

// Get returns the raw value for key.
func (m Metadata) Get(key string) (string, bool) {
	v, ok := m.raw[key]
	return v, ok
}

// TrainingTool returns all entries under the training-tool namespace,
// prefix stripped.
func (m Metadata) TrainingTool() map[string]string {
	return m.withPrefix(TrainingToolPrefix)
}

// ModelSpec returns all entries under the model-spec namespace,
// prefix stripped.
func (m Metadata) ModelSpec() map[string]string {
	return m.withPrefix(ModelSpecPrefix)
}

func (m Metadata) withPrefix(prefix string) map[string]string {
	out := map[string]string{}
	for k, v := range m.raw {
		if strings.HasPrefix(k, prefix) && len(k) > len(prefix) {
			out[strings.TrimPrefix(k, prefix)] = v
		}
	}
	return out
}

// BaseModel returns the declared base model: the training-tool base-model
// field if present, else the model-spec architecture field.
func (m Metadata) BaseModel() (string, bool) {
	if v, ok := m.raw[TrainingToolPrefix+"base_model_version"]; ok && v != "" {
		return v, true
	}
	if v, ok := m.raw[ModelSpecPrefix+"architecture"]; ok && v != "" {
		return v, true
	}
	return "", false
}

// TriggerWords recovers trigger words from the nested tag-frequency table.
// The table is a JSON object of dataset name to {tag: count}; up to 10 tags
// per dataset are kept, ordered by descending count, deduplicated across
// datasets. An absent or undecodable table yields nil.
func (m Metadata) TriggerWords() []string {
	raw, ok := m.raw[TrainingToolPrefix+"tag_frequency"]
	if !ok || raw == "" {
		return nil
	}
	var table map[string]map[string]int
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		return nil
	}
	sets := make([]string, 0, len(table))
	for name := range table {
		sets = append(sets, name)
	}
	sort.Strings(sets)
	seen := map[string]bool{}
	var words []string
	for _, set := range sets {
		for _, tag := range topTags(table[set], maxTriggerWordsPerSet) {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			words = append(words, tag)
		}
	}
	return words
}

// topTags returns up to limit tags ordered by descending count, ties broken
// lexicographically for determinism.
func topTags(tags map[string]int, limit int) []string {
	type tc struct {
		tag   string
		count int
	}
	ordered := make([]tc, 0, len(tags))
	for tag, count := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		ordered = append(ordered, tc{tag, count})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].tag < ordered[j].tag
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	out := make([]string, len(ordered))
	for i, t := range ordered {
		out[i] = t.tag
	}
	return out
}
