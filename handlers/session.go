package handlers

import (
	"log"
	"sync"
	"time"

	"runedeep/server/messages"
	"runedeep/server/models"
	"runedeep/server/services"
)

// maxStep caps the simulated time of a single step after a stall
const maxStep = 250 * time.Millisecond

// commandBuffer bounds the number of intents queued between steps
const commandBuffer = 256

// Sender delivers outgoing messages to a client
type Sender interface {
	SendMessage(msg interface{}) error
}

// Session drives one run. Its goroutine is the only writer of the state;
// other goroutines talk to it through the command queue.
type Session struct {
	world    *services.WorldService
	players  *services.PlayerService
	clients  *ClientManager
	conn     Sender
	profile  *models.Profile
	seed     int64
	interval time.Duration

	state    *models.GameState
	run      *models.RunRecord
	commands chan services.Command
	done     chan struct{}
	once     sync.Once
}

// NewSession builds the first level and records a new run
func NewSession(world *services.WorldService, players *services.PlayerService, clients *ClientManager, conn Sender, profile *models.Profile, seed int64, interval time.Duration) (*Session, error) {
	s := &Session{
		world:    world,
		players:  players,
		clients:  clients,
		conn:     conn,
		profile:  profile,
		seed:     seed,
		interval: interval,
		state:    world.NewRun(),
		commands: make(chan services.Command, commandBuffer),
		done:     make(chan struct{}),
	}

	run, err := players.StartRun(profile, seed, s.state)
	if err != nil {
		return nil, err
	}
	s.run = run
	return s, nil
}

// RunID returns the current run record ID
func (s *Session) RunID() string {
	return s.run.ID
}

// Enqueue queues a command for the next step. It reports false when the
// session has stopped or the queue is full.
func (s *Session) Enqueue(cmd services.Command) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.commands <- cmd:
		return true
	default:
		log.Printf("Command queue full for %s, dropping %s", s.profile.Username, cmd.Type)
		return false
	}
}

// Stop ends the session loop
func (s *Session) Stop() {
	s.once.Do(func() { close(s.done) })
}

// Run steps the simulation at the configured interval until Stop is called
func (s *Session) Run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.publishLevel()
	last := time.Now()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if dt > maxStep {
				dt = maxStep
			}
			s.step(s.drain(), dt)
		}
	}
}

// drain takes every command queued so far
func (s *Session) drain() []services.Command {
	var cmds []services.Command
	for {
		select {
		case cmd := <-s.commands:
			cmds = append(cmds, cmd)
		default:
			return cmds
		}
	}
}

// step applies the commands and one tick, then publishes the results
func (s *Session) step(cmds []services.Command, dt time.Duration) {
	before := s.state
	s.state = s.world.Step(s.state, cmds, dt)

	if s.state != before {
		if hasReset(cmds) && s.state.Level == 1 {
			s.restartRun()
		}
		s.publishLevel()
	}
	s.handleEvents(s.state.Events)

	if err := s.conn.SendMessage(messages.BaseMessage{
		Type:    messages.MessageTypeUpdate,
		Payload: messages.NewUpdateMessage(s.state),
	}); err != nil {
		log.Printf("Error sending update to %s: %v", s.profile.Username, err)
	}
}

func hasReset(cmds []services.Command) bool {
	for _, c := range cmds {
		if c.Type == services.CommandReset {
			return true
		}
	}
	return false
}

// restartRun closes out the current record and opens a fresh one
func (s *Session) restartRun() {
	run, err := s.players.StartRun(s.profile, s.seed, s.state)
	if err != nil {
		log.Printf("Error starting new run for %s: %v", s.profile.Username, err)
		return
	}
	s.run = run
}

// handleEvents checkpoints runs and announces milestones
func (s *Session) handleEvents(events []models.Event) {
	if len(events) == 0 {
		return
	}

	checkpoint := false
	for _, e := range events {
		switch e.Kind {
		case models.EventLevelAdvanced:
			checkpoint = true
			s.clients.BroadcastToOthers(s.profile.ID, announcement("%s descended to level %d", s.profile.Username, s.state.Level))
		case models.EventGameOver:
			checkpoint = true
			s.clients.BroadcastToOthers(s.profile.ID, announcement("%s fell on level %d with %d points", s.profile.Username, s.state.Level, s.state.Score))
		}
	}

	if checkpoint {
		if err := s.players.Checkpoint(s.run, s.state); err != nil {
			log.Printf("Error checkpointing run %s: %v", s.run.ID, err)
		}
	}

	if err := s.conn.SendMessage(messages.BaseMessage{
		Type:    messages.MessageTypeEvents,
		Payload: messages.EventsMessage{Events: events},
	}); err != nil {
		log.Printf("Error sending events to %s: %v", s.profile.Username, err)
	}
}

// publishLevel sends the static map for the current level
func (s *Session) publishLevel() {
	if err := s.conn.SendMessage(messages.BaseMessage{
		Type: messages.MessageTypeLevel,
		Payload: messages.LevelMessage{
			Level: s.state.Level,
			Map:   s.state.Map,
		},
	}); err != nil {
		log.Printf("Error sending level to %s: %v", s.profile.Username, err)
	}
}
