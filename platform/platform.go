// Package platform is the external "platform / hardware description"
// collaborator (§6): the structured, JSON-loadable configuration that
// drives block-timing, cache, and branch-predictor analyses. Its shape
// mirrors the teacher's timing/cache.Config and timing/latency/config.go
// (encoding/json, plain structs, Default* constructors).
package platform

import (
	"encoding/json"
	"fmt"
	"os"
)

// Stage describes one pipeline stage used by the block-timing
// collaborator to compute per-block execution time.
type Stage struct {
	Name    string `json:"name"`
	Width   int    `json:"width"`
	Latency int    `json:"latency"`
}

// Processor describes the target's pipeline shape.
type Processor struct {
	Stages        []Stage `json:"stages"`
	FunctionUnits int     `json:"functionUnits"`
	IssueWidth    int     `json:"issueWidth"`
}

// MemoryBank describes one region of the address space.
type MemoryBank struct {
	RangeLo      uint64 `json:"rangeLo"`
	RangeHi      uint64 `json:"rangeHi"`
	Cached       bool   `json:"cached"`
	ReadLatency  int    `json:"readLatency"`
	WriteLatency int    `json:"writeLatency"`
	WorstRead    int    `json:"worstRead"`
	WorstWrite   int    `json:"worstWrite"`
}

// Memory describes the memory hierarchy's non-cache part.
type Memory struct {
	Banks []MemoryBank `json:"banks"`
}

// Replacement is the cache replacement policy.
type Replacement string

const (
	ReplacementLRU    Replacement = "LRU"
	ReplacementFIFO   Replacement = "FIFO"
	ReplacementPLRU   Replacement = "PLRU"
	ReplacementRandom Replacement = "Random"
)

// WritePolicy distinguishes write-through from write-back caches (§4.G).
type WritePolicy string

const (
	WriteThrough WritePolicy = "write-through"
	WriteBack    WritePolicy = "write-back"
)

// Cache describes one cache level (instruction or data).
type Cache struct {
	BlockBits    int         `json:"blockBits"`
	RowBits      int         `json:"rowBits"`
	WayBits      int         `json:"wayBits"`
	Replacement  Replacement `json:"replacement"`
	Write        WritePolicy `json:"write"`
	AllocOnWrite bool        `json:"allocateOnWrite"`
	MissPenalty  int         `json:"missPenalty"`
}

// LineSize, SetCount, Associativity derive the traditional cache
// dimensions from the bit-widths used throughout OTAWA's own
// hard.Cache description.
func (c Cache) LineSize() int      { return 1 << c.BlockBits }
func (c Cache) SetCount() int      { return 1 << c.RowBits }
func (c Cache) Associativity() int { return 1 << c.WayBits }

// BHT describes the branch history table modeled by the branch
// prediction analysis (§4.H).
type BHT struct {
	RowBits           int  `json:"rowBits"`
	WayBits           int  `json:"wayBits"`
	CondPenalty       int  `json:"condPenalty"`
	IndirectPenalty   int  `json:"indirectPenalty"`
	CorrectTaken      int  `json:"correctTakenPenalty"`
	CorrectNotTaken   int  `json:"correctNotTakenPenalty"`
	IncorrectTaken    int  `json:"incorrectTakenPenalty"`
	IncorrectNotTaken int  `json:"incorrectNotTakenPenalty"`
	DefaultPrediction bool `json:"defaultPredictionTaken"`
}

func (b BHT) Rows() int          { return 1 << b.RowBits }
func (b BHT) Associativity() int { return 1 << b.WayBits }

// Description is the full platform configuration, the root object
// loaded from JSON.
type Description struct {
	Processor Processor `json:"processor"`
	Memory    Memory    `json:"memory"`
	ICache    *Cache    `json:"icache,omitempty"`
	DCache    *Cache    `json:"dcache,omitempty"`
	BHT       *BHT      `json:"bht,omitempty"`
}

// Load reads a platform description from a JSON file, the same pattern
// as the teacher's latency.LoadConfig.
func Load(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("platform: failed to read %s: %w", path, err)
	}
	var d Description
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("platform: failed to parse %s: %w", path, err)
	}
	return &d, nil
}

// Default returns a small, reasonable default description, used when
// the caller has no JSON configuration (mirroring
// latency.DefaultTimingConfig).
func Default() *Description {
	return &Description{
		Processor: Processor{
			Stages: []Stage{
				{Name: "fetch", Width: 1, Latency: 1},
				{Name: "decode", Width: 1, Latency: 1},
				{Name: "execute", Width: 1, Latency: 1},
				{Name: "commit", Width: 1, Latency: 1},
			},
			FunctionUnits: 1,
			IssueWidth:    1,
		},
		Memory: Memory{Banks: []MemoryBank{
			{RangeLo: 0, RangeHi: ^uint64(0), Cached: true, ReadLatency: 100, WriteLatency: 100, WorstRead: 100, WorstWrite: 100},
		}},
		ICache: &Cache{BlockBits: 6, RowBits: 1, WayBits: 1, Replacement: ReplacementLRU, Write: WriteThrough, MissPenalty: 10},
		DCache: &Cache{BlockBits: 6, RowBits: 2, WayBits: 2, Replacement: ReplacementLRU, Write: WriteBack, MissPenalty: 10},
		BHT:    &BHT{RowBits: 4, WayBits: 0, CondPenalty: 2, IndirectPenalty: 4, IncorrectTaken: 3, IncorrectNotTaken: 3, DefaultPrediction: true},
	}
}
