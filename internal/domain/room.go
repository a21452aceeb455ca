package domain

import "time"

// GameSettings holds configurable room parameters
type GameSettings struct {
	QuestionCount    int           `json:"questionCount"`
	QuestionDuration time.Duration `json:"questionDuration"`
	RevealInterval   time.Duration `json:"revealInterval"`
	BaseAward        int           `json:"baseAward"`
	TimeBonus        bool          `json:"timeBonus"`
	TimeUpTolerance  time.Duration `json:"timeUpTolerance"`
	MaxTeams         int           `json:"maxTeams"`
}

// DefaultGameSettings returns the default game settings
func DefaultGameSettings() GameSettings {
	return GameSettings{
		QuestionCount:    10,
		QuestionDuration: 30 * time.Second,
		RevealInterval:   7 * time.Second,
		BaseAward:        10,
		TimeBonus:        false,
		TimeUpTolerance:  2 * time.Second,
		MaxTeams:         16,
	}
}

// ScoreFunc returns the scoring rule selected by the settings
func (s GameSettings) ScoreFunc() ScoreFunc {
	if s.TimeBonus {
		return TimeBonusScore
	}
	return FlatScore
}

// Room represents one trivia session
type Room struct {
	Code         string            `json:"code"`
	Teams        []*Team           `json:"teams"`
	Phase        Phase             `json:"phase"`
	CurrentIndex int               `json:"currentIndex"`
	Questions    []Question        `json:"-"`
	Answers      map[string]string `json:"-"`
	Scores       map[string]int    `json:"scores"`
	Settings     GameSettings      `json:"settings"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	FinishedAt   time.Time         `json:"finishedAt,omitempty"`
}

// NewRoom creates a room with its creator as host
func NewRoom(code, hostName string, settings GameSettings) (*Room, error) {
	name, err := NormalizeTeamName(hostName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Room{
		Code:         code,
		Teams:        []*Team{NewTeam(name, true)},
		Phase:        PhaseLobby,
		CurrentIndex: -1,
		Answers:      make(map[string]string),
		Scores:       map[string]int{name: 0},
		Settings:     settings,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Started reports whether the room has left the lobby
func (r *Room) Started() bool {
	return r.Phase.Started()
}

// AddTeam appends a guest team
func (r *Room) AddTeam(teamName string) (*Team, error) {
	name, err := NormalizeTeamName(teamName)
	if err != nil {
		return nil, err
	}

	if r.Started() {
		return nil, ErrGameAlreadyStarted
	}

	if _, err := r.GetTeam(name); err == nil {
		return nil, ErrDuplicateTeamName
	}

	if r.Settings.MaxTeams > 0 && len(r.Teams) >= r.Settings.MaxTeams {
		return nil, ErrRoomFull
	}

	team := NewTeam(name, false)
	r.Teams = append(r.Teams, team)
	if _, ok := r.Scores[name]; !ok {
		r.Scores[name] = 0
	}
	r.touch()

	return team, nil
}

// RemoveTeam removes a team and reports whether it was the host
func (r *Room) RemoveTeam(teamName string) (bool, error) {
	for i, team := range r.Teams {
		if team.Name != teamName {
			continue
		}

		r.Teams = append(r.Teams[:i], r.Teams[i+1:]...)
		delete(r.Answers, teamName)
		r.touch()
		return team.IsHost, nil
	}

	return false, ErrTeamNotFound
}

// GetTeam returns a team by name
func (r *Room) GetTeam(teamName string) (*Team, error) {
	for _, team := range r.Teams {
		if team.Name == teamName {
			return team, nil
		}
	}
	return nil, ErrTeamNotFound
}

// IsHost checks if the given team is the host
func (r *Room) IsHost(teamName string) bool {
	return len(r.Teams) > 0 && r.Teams[0].Name == teamName
}

// ToggleReady flips readiness for a guest team and reports whether anything changed
func (r *Room) ToggleReady(teamName string) bool {
	team, err := r.GetTeam(teamName)
	if err != nil || team.IsHost {
		return false
	}

	team.Ready = !team.Ready
	r.touch()
	return true
}

// CanStart checks if the game can be started
func (r *Room) CanStart() bool {
	if r.Phase != PhaseLobby || len(r.Teams) == 0 {
		return false
	}

	for _, team := range r.Teams {
		if !team.IsReady() {
			return false
		}
	}
	return true
}

// Start opens the first of the given questions
func (r *Room) Start(questions []Question) error {
	if r.Started() {
		return ErrGameAlreadyStarted
	}

	if !r.CanStart() {
		return ErrNotReady
	}

	if len(questions) == 0 {
		return ErrNoQuestions
	}

	r.Questions = make([]Question, len(questions))
	copy(r.Questions, questions)

	for _, team := range r.Teams {
		r.Scores[team.Name] = 0
	}

	r.Answers = make(map[string]string)
	r.CurrentIndex = 0
	r.Phase = PhaseInProgress
	r.touch()

	return nil
}

// CurrentQuestion returns the question at the cursor
func (r *Room) CurrentQuestion() (Question, error) {
	if r.CurrentIndex < 0 || r.CurrentIndex >= len(r.Questions) {
		return Question{}, ErrNotInProgress
	}
	return r.Questions[r.CurrentIndex], nil
}

// CurrentView returns the client view of the open question
func (r *Room) CurrentView() (QuestionView, error) {
	q, err := r.CurrentQuestion()
	if err != nil {
		return QuestionView{}, err
	}
	return q.View(r.CurrentIndex, len(r.Questions), int(r.Settings.QuestionDuration.Seconds())), nil
}

// SubmitAnswer records the first answer of a team for the open question.
// A correct option adds award to the team's score.
func (r *Room) SubmitAnswer(teamName, option string, award int) (bool, error) {
	if r.Phase != PhaseInProgress {
		return false, ErrNotInProgress
	}

	question, err := r.CurrentQuestion()
	if err != nil {
		return false, err
	}

	if _, err := r.GetTeam(teamName); err != nil {
		return false, err
	}

	if _, answered := r.Answers[teamName]; answered {
		return r.AllAnswered(), ErrDuplicateAnswer
	}

	r.Answers[teamName] = option
	if option == question.CorrectOption {
		r.Scores[teamName] += award
	}
	r.touch()

	return r.AllAnswered(), nil
}

// AllAnswered checks if every current team has answered the open question
func (r *Room) AllAnswered() bool {
	return len(r.Teams) > 0 && len(r.Answers) >= len(r.Teams)
}

// Reveal closes the open question
func (r *Room) Reveal() (string, error) {
	if !r.Phase.CanTransitionTo(PhaseRevealing) {
		return "", ErrInvalidTransition
	}

	question, err := r.CurrentQuestion()
	if err != nil {
		return "", err
	}

	r.Phase = PhaseRevealing
	r.touch()

	return question.CorrectOption, nil
}

// Advance moves the cursor past the revealed question. It reports
// whether another question was opened; false means the game finished.
func (r *Room) Advance() (bool, error) {
	if r.Phase != PhaseRevealing {
		return false, ErrInvalidTransition
	}

	if len(r.Questions) == 0 {
		return false, ErrNoQuestions
	}

	r.CurrentIndex++
	r.Answers = make(map[string]string)
	r.touch()

	if r.CurrentIndex < len(r.Questions) {
		r.Phase = PhaseInProgress
		return true, nil
	}

	r.CurrentIndex = len(r.Questions)
	r.Phase = PhaseFinished
	r.FinishedAt = r.UpdatedAt

	return false, nil
}

// ScoreBoard returns a copy of the scores
func (r *Room) ScoreBoard() map[string]int {
	scores := make(map[string]int, len(r.Scores))
	for name, score := range r.Scores {
		scores[name] = score
	}
	return scores
}

// GetTeamInfoList returns the teams in join order
func (r *Room) GetTeamInfoList() []TeamInfo {
	teams := make([]TeamInfo, 0, len(r.Teams))
	for _, t := range r.Teams {
		teams = append(teams, t.ToInfo())
	}
	return teams
}

// GetTeamsState returns the current membership state for broadcasting
func (r *Room) GetTeamsState() *TeamsPayload {
	return &TeamsPayload{
		Teams:    r.GetTeamInfoList(),
		CanStart: r.CanStart(),
	}
}

func (r *Room) touch() {
	r.UpdatedAt = time.Now()
}
