package simulator

import (
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/openfms/gps-relay/geo"
)

// GPSDevice plays the embedded tracker: it streams position reports and
// reacts to the pulse/buzz tokens the server pushes back.
type GPSDevice struct {
	serverAddr string
	format     geo.Format
	interval   time.Duration
	conn       net.Conn
	wg         sync.WaitGroup
	log        *log.Logger
}

type DeviceInterface interface {
	Connect() error
	Stop()
	SendPosition(lat, lon float64) error
	SendRandomPositions()
	ListenTokens()
}

var (
	_ DeviceInterface = &GPSDevice{}
)

func NewGPSDevice(serverAddr string, format geo.Format, interval time.Duration, logger *log.Logger) *GPSDevice {
	return &GPSDevice{
		serverAddr: serverAddr,
		format:     format,
		interval:   interval,
		wg:         sync.WaitGroup{},
		log:        logger,
	}
}

func (gd *GPSDevice) Connect() error {
	conn, err := net.Dial("tcp", gd.serverAddr)
	if err != nil {
		return fmt.Errorf("failed to dial server: %v", err)
	}
	gd.conn = conn
	return nil
}

func (gd *GPSDevice) Stop() {
	gd.conn.Close()
	gd.wg.Wait()
	gd.log.Println("stop gps simulator...")
	os.Exit(0)
}

// SendPosition reports one fix in device angle text, terminated the way
// the firmware terminates reports.
func (gd *GPSDevice) SendPosition(lat, lon float64) error {
	payload := fmt.Sprintf("pos:%s,%s#",
		geo.FormatAngle(lat, gd.format),
		geo.FormatAngle(lon, gd.format),
	)
	if _, err := gd.conn.Write([]byte(payload)); err != nil {
		return fmt.Errorf("failed to send position: %v", err)
	}
	return nil
}

// SendRandomPositions streams random in-territory fixes until the
// connection closes.
func (gd *GPSDevice) SendRandomPositions() {
	gd.wg.Add(1)
	defer gd.wg.Done()
	for {
		lat, lon := RandomPoint()
		if err := gd.SendPosition(lat, lon); err != nil {
			gd.log.Printf("send failed: %v", err)
			return
		}
		gd.log.Printf("sent fix lat=%f lon=%f", lat, lon)
		time.Sleep(gd.interval)
	}
}

// ListenTokens logs the server-to-device tokens as the firmware would
// handle them.
func (gd *GPSDevice) ListenTokens() {
	gd.wg.Add(1)
	defer gd.wg.Done()
	buf := make([]byte, 256)
	for {
		n, err := gd.conn.Read(buf)
		if err != nil {
			gd.log.Printf("token read failed: %v", err)
			return
		}
		data := string(buf[:n])
		if strings.Contains(data, "buzz") {
			gd.log.Println("buzz: sounding buzzer")
		} else if strings.Contains(data, "pulse") {
			gd.log.Println("pulse: server heartbeat")
		}
	}
}
