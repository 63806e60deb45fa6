package main

import (
	"flag"
	"log"
	"os"
	"path"

	"github.com/robotalks/dualdrive/pkg/l1/comm/mqtt"
	"github.com/robotalks/dualdrive/pkg/l1/msgs"
	"github.com/robotalks/dualdrive/pkg/netcore"
)

var mqttURL = "mqtt://localhost:1883/dualdrive/"

func init() {
	if val := os.Getenv("DUALDRIVE_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

// printPacket logs everything published under the prefix: meta and status
// topics are JSON, the others carry Typed envelopes.
func printPacket(topic string, payload []byte) {
	switch path.Base(topic) {
	case mqtt.TopicMeta, mqtt.TopicStatus:
		log.Printf("%s: %s", topic, payload)
		return
	}
	typed, err := msgs.DecodeTyped(payload)
	if err != nil {
		log.Printf("%s: bad envelope: %v", topic, err)
		return
	}
	msg, err := typed.Decode()
	if err != nil {
		log.Printf("%s: #%d %08x: %v", topic, typed.Sequence, typed.TypeId, err)
		return
	}
	if status, ok := msg.(*msgs.DriveStatus); ok {
		log.Printf("%s: [%s] %s", topic, netcore.ModeName(status.Mode), status.String())
		return
	}
	log.Printf("%s: #%d %s", topic, typed.Sequence, msg.(msgs.SerializableMessage).Serializable().String())
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.ConnectAndWait(); err != nil {
		log.Fatalln(err)
	}
	q.Sub("#", printPacket)
	select {}
}
