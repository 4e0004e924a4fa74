package quiz

import (
	"math/rand"
	"sort"
	"time"

	"github.com/example/drillbot/pkg/models"
)

// View is the payload published after every deck state change
type View struct {
	CurrentPrompt string
	CurrentMedia  string
	Options       []string
	Exhausted     bool
	AnsweredCount int
	Total         int
}

// HasQuestion reports whether a prompt is being presented
func (v View) HasQuestion() bool {
	return v.CurrentPrompt != ""
}

// Result is the outcome of answering the presented prompt
type Result struct {
	Prompt        string
	Selected      string
	CorrectAnswer string
	Correct       bool
}

// PromptStatus describes one prompt of the deck's question set
type PromptStatus struct {
	Prompt  string
	Enabled bool
	Seen    bool
}

// Deck schedules the prompts of one question set.
//
// The main queue holds prompts awaiting presentation in the current pass and the
// retry queue holds prompts answered incorrectly. Both queues are disjoint subsets
// of the active prompts. Seen prompts are always active, so the answered count is
// simply the size of the seen set.
type Deck struct {
	set    models.QuestionSet
	pool   []string
	active map[string]bool
	seen   map[string]bool
	main   []string
	retry  []string

	current string
	options []string
	pending bool

	state State
	rnd   *rand.Rand
}

// NewDeck builds a deck for set, merging restored progress when it is not nil.
// A nil rnd seeds a generator from the clock.
func NewDeck(set models.QuestionSet, restored *models.ProgressRecord, rnd *rand.Rand) *Deck {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	d := &Deck{
		set:    set,
		pool:   set.Answers(),
		active: make(map[string]bool, len(set)),
		seen:   make(map[string]bool),
		state:  Loading,
		rnd:    rnd,
	}
	d.initialize(restored)
	return d
}

func (d *Deck) initialize(restored *models.ProgressRecord) {
	prompts := d.set.Prompts()
	for _, prompt := range prompts {
		d.active[prompt] = true
	}

	queued := make(map[string]bool)
	if restored != nil {
		for _, prompt := range restored.AnsweredQuestions {
			if d.active[prompt] {
				d.seen[prompt] = true
			}
		}
		// Stored retry prompts survive only while they are still in the set
		for _, prompt := range restored.WrongQueue {
			if d.active[prompt] && !queued[prompt] {
				queued[prompt] = true
				d.retry = append(d.retry, prompt)
			}
		}
	}

	for _, prompt := range prompts {
		if !d.seen[prompt] && !queued[prompt] {
			d.main = append(d.main, prompt)
		}
	}
	d.shuffle(d.main)
	d.state = Active
}

// Next presents the next prompt. It reports whether the prompt was presented for the
// first time, which is when the caller must persist progress.
//
// When the main queue runs dry the retry queue is shuffled into it. When both are
// empty the deck becomes Exhausted. Calling Next while a prompt awaits an answer
// leaves the deck unchanged.
func (d *Deck) Next() bool {
	if d.pending || d.state == Loading {
		return false
	}

	if len(d.main) == 0 && len(d.retry) > 0 {
		d.main = append(d.main, d.retry...)
		d.retry = nil
		d.shuffle(d.main)
	}
	if len(d.main) == 0 {
		d.state = Exhausted
		return false
	}

	d.state = Active
	d.current = d.main[0]
	d.main = d.main[1:]
	d.pending = true
	d.options = Options(d.rnd, d.set[d.current].Answer, d.pool)

	if d.seen[d.current] {
		return false
	}
	d.seen[d.current] = true
	return true
}

// Answer checks selected against the presented prompt's answer (exact match).
// An incorrect answer sends the prompt to the back of the retry queue.
func (d *Deck) Answer(selected string) (Result, error) {
	if !d.pending {
		return Result{}, ErrNoCurrentQuestion
	}

	question := d.set[d.current]
	result := Result{
		Prompt:        question.Prompt,
		Selected:      selected,
		CorrectAnswer: question.Answer,
		Correct:       selected == question.Answer,
	}
	if !result.Correct {
		d.retry = append(d.retry, d.current)
	}

	d.clearCurrent()
	return result, nil
}

// Toggle enables or disables a prompt.
// Enabling queues the prompt for the current pass. Disabling drops it from both
// queues and from the seen set, discarding a pending presentation of it.
func (d *Deck) Toggle(prompt string, enabled bool) error {
	if _, ok := d.set[prompt]; !ok {
		return ErrUnknownPrompt
	}

	if enabled {
		if d.active[prompt] {
			return nil
		}
		d.active[prompt] = true
		if !d.seen[prompt] && !contains(d.main, prompt) && !contains(d.retry, prompt) {
			d.main = append(d.main, prompt)
			if d.state == Exhausted {
				d.state = Active
			}
		}
		return nil
	}

	if !d.active[prompt] {
		return nil
	}
	delete(d.active, prompt)
	delete(d.seen, prompt)
	d.main = remove(d.main, prompt)
	d.retry = remove(d.retry, prompt)
	if d.pending && d.current == prompt {
		d.clearCurrent()
	}
	return nil
}

// Retake starts a new pass over every active prompt. Only valid once the deck is exhausted.
func (d *Deck) Retake() error {
	if d.state != Exhausted {
		return ErrNotExhausted
	}
	if len(d.active) == 0 {
		return ErrEmptySet
	}

	d.seen = make(map[string]bool)
	d.retry = nil
	d.main = nil
	for _, prompt := range d.set.Prompts() {
		if d.active[prompt] {
			d.main = append(d.main, prompt)
		}
	}
	d.shuffle(d.main)
	d.state = Active
	return nil
}

// State returns the lifecycle state
func (d *Deck) State() State {
	return d.state
}

// AnsweredCount returns the number of active prompts presented at least once in this pass
func (d *Deck) AnsweredCount() int {
	return len(d.seen)
}

// Total returns the number of active prompts
func (d *Deck) Total() int {
	return len(d.active)
}

// Current returns the prompt awaiting an answer
func (d *Deck) Current() (models.Question, bool) {
	if !d.pending {
		return models.Question{}, false
	}
	return d.set[d.current], true
}

// View returns the payload describing the deck's current state
func (d *Deck) View() View {
	v := View{
		Exhausted:     d.state == Exhausted,
		AnsweredCount: d.AnsweredCount(),
		Total:         d.Total(),
	}
	if d.pending {
		question := d.set[d.current]
		v.CurrentPrompt = question.Prompt
		v.CurrentMedia = question.Media
		v.Options = append([]string(nil), d.options...)
	}
	return v
}

// Prompts lists every prompt of the set with its toggle and seen state
func (d *Deck) Prompts() []PromptStatus {
	prompts := d.set.Prompts()
	statuses := make([]PromptStatus, 0, len(prompts))
	for _, prompt := range prompts {
		statuses = append(statuses, PromptStatus{
			Prompt:  prompt,
			Enabled: d.active[prompt],
			Seen:    d.seen[prompt],
		})
	}
	return statuses
}

// Snapshot captures the deck state for persistence
func (d *Deck) Snapshot() models.ProgressRecord {
	answered := make([]string, 0, len(d.seen))
	for prompt := range d.seen {
		answered = append(answered, prompt)
	}
	sort.Strings(answered)

	return models.ProgressRecord{
		AnsweredCount:     len(d.seen),
		TotalQuestions:    len(d.active),
		AnsweredQuestions: answered,
		Queue:             append([]string{}, d.main...),
		WrongQueue:        append([]string{}, d.retry...),
	}
}

func (d *Deck) clearCurrent() {
	d.current = ""
	d.options = nil
	d.pending = false
}

func (d *Deck) shuffle(prompts []string) {
	d.rnd.Shuffle(len(prompts), func(i, j int) {
		prompts[i], prompts[j] = prompts[j], prompts[i]
	})
}

func contains(prompts []string, prompt string) bool {
	for _, p := range prompts {
		if p == prompt {
			return true
		}
	}
	return false
}

// remove deletes prompt from prompts, preserving order
func remove(prompts []string, prompt string) []string {
	out := prompts[:0]
	for _, p := range prompts {
		if p != prompt {
			out = append(out, p)
		}
	}
	return out
}
