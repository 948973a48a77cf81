package platform

import (
	"bufio"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"strings"
	"sync"
	"time"
)

// ErrAlreadyRunning indicates another instance already holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

const (
	showCommand   = "show"
	signalTimeout = 2 * time.Second
)

// InstanceGuard holds the single-instance lock and receives signals from
// later launches.
type InstanceGuard struct {
	listener net.Listener
	address  string
	once     sync.Once
	done     chan struct{}
}

// AcquireSingleInstance attempts to bind a deterministic localhost port.
func AcquireSingleInstance(appName string) (*InstanceGuard, error) {
	address := instanceAddress(appName)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, ErrAlreadyRunning
	}
	return &InstanceGuard{listener: listener, address: address, done: make(chan struct{})}, nil
}

// SignalRunning asks the instance holding the lock to show itself.
func SignalRunning(appName string) error {
	conn, err := net.DialTimeout("tcp", instanceAddress(appName), signalTimeout)
	if err != nil {
		return fmt.Errorf("signal running instance: %w", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(signalTimeout))
	if _, err := fmt.Fprintln(conn, showCommand); err != nil {
		return fmt.Errorf("signal running instance: %w", err)
	}
	return nil
}

// Listen calls onShow for every show signal until Release. It returns
// immediately; signals are handled on a background goroutine.
func (guard *InstanceGuard) Listen(onShow func()) {
	if guard == nil || guard.listener == nil {
		return
	}
	go guard.accept(onShow)
}

// Done is closed once the accept loop exits.
func (guard *InstanceGuard) Done() <-chan struct{} {
	return guard.done
}

func (guard *InstanceGuard) accept(onShow func()) {
	defer close(guard.done)
	for {
		conn, err := guard.listener.Accept()
		if err != nil {
			return
		}
		if readCommand(conn) == showCommand && onShow != nil {
			onShow()
		}
	}
}

func readCommand(conn net.Conn) string {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(signalTimeout))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

// Release frees the single instance lock.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	var err error
	guard.once.Do(func() {
		err = guard.listener.Close()
	})
	return err
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

func instanceAddress(appName string) string {
	return fmt.Sprintf("127.0.0.1:%d", portFromName(appName))
}

func portFromName(appName string) int {
	const (
		minPort = 20000
		maxPort = 39999
	)
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	rangeSize := maxPort - minPort + 1
	return minPort + int(hash.Sum32()%uint32(rangeSize))
}
