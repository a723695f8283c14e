package model

import (
	"fmt"
	"time"
)

// SurveyDoc is the flat, persisted form of a survey. Build links it into the
// immutable tree the interpreter and QC engine consume. The external survey
// loader produces these; this core only reads them.
type SurveyDoc struct {
	ID        string     `json:"id" bson:"_id,omitempty"`
	Name      string     `json:"name" bson:"name"`
	Blocks    []BlockDoc `json:"blocks" bson:"blocks"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
}

// BlockDoc is the persisted form of a block.
type BlockDoc struct {
	ID           string        `json:"id" bson:"id"`
	Index        int           `json:"index" bson:"index"`
	Randomizable bool          `json:"randomizable" bson:"randomizable"`
	Paradigm     string        `json:"paradigm" bson:"paradigm"`
	Questions    []QuestionDoc `json:"questions" bson:"questions"`
	SubBlocks    []BlockDoc    `json:"subBlocks,omitempty" bson:"subBlocks,omitempty"`
}

// QuestionDoc is the persisted form of a question. BranchMap routes option
// IDs to block IDs; Build resolves them to block pointers.
type QuestionDoc struct {
	ID        string            `json:"id" bson:"id"`
	Text      string            `json:"text" bson:"text"`
	SourceRow int               `json:"sourceRow" bson:"sourceRow"`
	Exclusive bool              `json:"exclusive" bson:"exclusive"`
	Ordered   bool              `json:"ordered" bson:"ordered"`
	Randomize bool              `json:"randomize" bson:"randomize"`
	Freetext  bool              `json:"freetext" bson:"freetext"`
	Options   []Option          `json:"options,omitempty" bson:"options,omitempty"`
	BranchMap map[string]string `json:"branchMap,omitempty" bson:"branchMap,omitempty"`
}

// Build constructs the immutable survey tree from the document, resolving
// branch targets and validating structural invariants.
func (d *SurveyDoc) Build() (*Survey, error) {
	s := &Survey{ID: d.ID, Name: d.Name}
	branchDocs := make(map[string]map[string]string)

	var buildBlock func(bd *BlockDoc) *Block
	buildBlock = func(bd *BlockDoc) *Block {
		b := &Block{
			ID:           bd.ID,
			Index:        bd.Index,
			Randomizable: bd.Randomizable,
			Paradigm:     BranchParadigm(bd.Paradigm),
		}
		if b.Paradigm == "" {
			b.Paradigm = BranchNone
		}
		for i := range bd.Questions {
			qd := &bd.Questions[i]
			q := &Question{
				ID:        qd.ID,
				Text:      qd.Text,
				SourceRow: qd.SourceRow,
				Exclusive: qd.Exclusive,
				Ordered:   qd.Ordered,
				Randomize: qd.Randomize,
				Freetext:  qd.Freetext,
			}
			for j := range qd.Options {
				o := qd.Options[j]
				q.Options = append(q.Options, &o)
			}
			if len(qd.BranchMap) > 0 {
				branchDocs[q.ID] = qd.BranchMap
			}
			b.Questions = append(b.Questions, q)
		}
		for i := range bd.SubBlocks {
			b.SubBlocks = append(b.SubBlocks, buildBlock(&bd.SubBlocks[i]))
		}
		return b
	}
	for i := range d.Blocks {
		s.TopLevelBlocks = append(s.TopLevelBlocks, buildBlock(&d.Blocks[i]))
	}

	// Branch maps reference blocks by ID; resolve after the whole tree
	// exists. Link validates the rest but cannot see unresolved branches,
	// so resolution happens in between.
	if err := s.Link(); err != nil {
		return nil, err
	}
	for qid, bm := range branchDocs {
		q, ok := s.QuestionByID(qid)
		if !ok {
			return nil, fmt.Errorf("%w: branch map on unknown question %s", ErrStructural, qid)
		}
		q.BranchMap = make(map[string]*Block, len(bm))
		for optID, blockID := range bm {
			dest, ok := s.BlockByID(blockID)
			if !ok {
				return nil, fmt.Errorf("%w: question %s branches to unknown block %s", ErrStructural, qid, blockID)
			}
			if _, ok := q.OptionByID(optID); !ok {
				return nil, fmt.Errorf("%w: question %s branch map references unknown option %s", ErrStructural, qid, optID)
			}
			q.BranchMap[optID] = dest
		}
		q.Block.BranchQ = q
	}
	return s, nil
}

// StoredAnswer is the persisted form of one answered question.
type StoredAnswer struct {
	QuestionID string   `json:"questionId" bson:"questionId"`
	OptionIDs  []string `json:"optionIds,omitempty" bson:"optionIds,omitempty"`
	Text       string   `json:"text,omitempty" bson:"text,omitempty"`
	IndexSeen  int      `json:"indexSeen" bson:"indexSeen"`
}

// StoredResponse is the persisted form of a survey response.
type StoredResponse struct {
	ID               string         `json:"id" bson:"_id,omitempty"`
	SurveyID         string         `json:"surveyId" bson:"surveyId"`
	Answers          []StoredAnswer `json:"answers" bson:"answers"`
	Score            float64        `json:"score" bson:"score"`
	Threshold        float64        `json:"threshold" bson:"threshold"`
	KnownValidity    ValidityStatus `json:"knownValidity" bson:"knownValidity"`
	ComputedValidity ValidityStatus `json:"computedValidity" bson:"computedValidity"`
	CreatedAt        time.Time      `json:"createdAt" bson:"createdAt"`
}

// NewStoredResponse flattens a survey response for persistence.
func NewStoredResponse(surveyID string, sr *SurveyResponse) *StoredResponse {
	doc := &StoredResponse{
		ID:               sr.ID,
		SurveyID:         surveyID,
		Score:            sr.Score,
		Threshold:        sr.Threshold,
		KnownValidity:    sr.KnownValidity,
		ComputedValidity: sr.ComputedValidity,
	}
	for _, qr := range sr.AllResponses() {
		doc.Answers = append(doc.Answers, StoredAnswer{
			QuestionID: qr.Question.ID,
			OptionIDs:  qr.OptionIDs(),
			Text:       qr.Text,
			IndexSeen:  qr.IndexSeen,
		})
	}
	return doc
}

// Restore resolves a stored response against the survey tree it belongs to.
func (d *StoredResponse) Restore(s *Survey) (*SurveyResponse, error) {
	sr := &SurveyResponse{
		ID:               d.ID,
		Score:            d.Score,
		Threshold:        d.Threshold,
		KnownValidity:    d.KnownValidity,
		ComputedValidity: d.ComputedValidity,
	}
	if sr.KnownValidity == "" {
		sr.KnownValidity = ValidityMaybe
	}
	if sr.ComputedValidity == "" {
		sr.ComputedValidity = ValidityMaybe
	}
	for _, a := range d.Answers {
		q, ok := s.QuestionByID(a.QuestionID)
		if !ok {
			return nil, fmt.Errorf("%w: stored response %s answers unknown question %s", ErrStructural, d.ID, a.QuestionID)
		}
		qr := &QuestionResponse{Question: q, Text: a.Text, IndexSeen: a.IndexSeen}
		for i, optID := range a.OptionIDs {
			o, ok := q.OptionByID(optID)
			if !ok {
				return nil, fmt.Errorf("%w: stored response %s selects unknown option %s on question %s", ErrStructural, d.ID, optID, q.ID)
			}
			qr.Opts = append(qr.Opts, OptTuple{Option: o, Index: i})
		}
		sr.Responses = append(sr.Responses, qr)
	}
	return sr, nil
}
