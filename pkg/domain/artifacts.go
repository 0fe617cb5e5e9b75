package domain

// Subject is the routing label produced by the classifier.
type Subject string

const (
	SubjectMath        Subject = "math"
	SubjectScience     Subject = "science"
	SubjectProgramming Subject = "programming"
	SubjectHistory     Subject = "history"
	SubjectLanguage    Subject = "language"
	SubjectArt         Subject = "art"
	SubjectMusic       Subject = "music"
	SubjectGeneral     Subject = "general"
)

// Subjects lists every subject label the classifier can emit.
func Subjects() []Subject {
	return []Subject{
		SubjectMath, SubjectScience, SubjectProgramming, SubjectHistory,
		SubjectLanguage, SubjectArt, SubjectMusic, SubjectGeneral,
	}
}

// Classification is the output of the first pipeline step.
type Classification struct {
	Subject Subject `json:"subject"`
	Level   Level   `json:"level"`
	// Matches counts the keyword hits behind the decision. Zero means the
	// default label was used.
	Matches int `json:"matches"`
	// Fallback is true when the rule-based classifier produced the result
	// because the model path was unavailable or failed.
	Fallback bool `json:"fallback,omitempty"`
}

// LessonSection is one block of a lesson plan. Body and Bullets are
// alternatives: a section carries either a passage or an ordered bullet list.
type LessonSection struct {
	Title   string   `json:"title"`
	Body    string   `json:"body,omitempty"`
	Bullets []string `json:"bullets,omitempty"`
}

// LessonPlan is the output of the planning step.
type LessonPlan struct {
	Topic      string          `json:"topic"`
	Subject    Subject         `json:"subject"`
	Level      Level           `json:"level"`
	Style      Style           `json:"learning_style"`
	Duration   string          `json:"estimated_duration,omitempty"`
	Objectives []string        `json:"objectives"`
	Sections   []LessonSection `json:"sections"`
}

// Resource is one retrieved reference (article, video, wiki page).
type Resource struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// ResourceSet maps a resource kind ("articles", "videos", "wiki") to an
// ordered list of resources. An empty set is a valid retrieval result.
type ResourceSet map[string][]Resource

// Total returns the number of resources across all kinds.
func (r ResourceSet) Total() int {
	n := 0
	for _, list := range r {
		n += len(list)
	}
	return n
}

// Difficulty tags a practice problem.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Problem is a single practice exercise. Answer is the reference solution
// and is not shown to the learner up front.
type Problem struct {
	ID            string     `json:"id"`
	Question      string     `json:"question"`
	Hint          string     `json:"hint"`
	Difficulty    Difficulty `json:"difficulty"`
	Answer        string     `json:"answer,omitempty"`
	EstimatedTime string     `json:"estimated_time,omitempty"`
}

// PracticeSet is the output of the practice generation step.
type PracticeSet struct {
	Topic    string    `json:"topic"`
	Level    Level     `json:"level"`
	Problems []Problem `json:"problems"`
}

// HardFraction reports the share of problems tagged hard. Practice
// difficulty must scale monotonically with the student level, which tests
// verify through this value.
func (p PracticeSet) HardFraction() float64 {
	if len(p.Problems) == 0 {
		return 0
	}
	hard := 0
	for _, pr := range p.Problems {
		if pr.Difficulty == DifficultyHard {
			hard++
		}
	}
	return float64(hard) / float64(len(p.Problems))
}

// AssessmentPlan is the output of the assessment step: how understanding of
// the topic should be measured once the learner starts answering.
type AssessmentPlan struct {
	Topic            string   `json:"topic"`
	Level            Level    `json:"level"`
	Types            []string `json:"assessment_types"`
	Criteria         []string `json:"evaluation_criteria"`
	MasteryThreshold float64  `json:"mastery_threshold"`
}

// Assessment is the result of grading a single free-text response.
type Assessment struct {
	Correct     bool    `json:"correct"`
	Score       float64 `json:"score"`
	Feedback    string  `json:"feedback"`
	Explanation string  `json:"explanation,omitempty"`
	// Automated is false when the grader could not judge the response and
	// substituted a neutral result.
	Automated bool `json:"automated"`
}

// ProgressSummary is the final step's output. It is compiled from whatever
// the earlier steps managed to produce and explicitly describes the gaps.
type ProgressSummary struct {
	Topic             string   `json:"topic"`
	Subject           Subject  `json:"subject"`
	ObjectivesCovered int      `json:"objectives_covered"`
	ProblemsGenerated int      `json:"problems_generated"`
	ResourcesFound    int      `json:"resources_found"`
	Completion        string   `json:"completion_status"`
	Recommendations   []string `json:"recommendations"`
	NextSteps         []string `json:"next_steps"`
	Duration          string   `json:"session_duration"`
}
