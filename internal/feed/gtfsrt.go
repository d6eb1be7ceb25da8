// Package feed renders the tracker status as a GTFS-Realtime feed, so
// standard transit tooling can consume the vehicle position directly.
package feed

import (
	"fmt"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/WxboySuper/Santa-Tracker/internal/timeline"
)

const vehicleID = "sleigh-1"

// BuildFeed converts a tracker status into a FeedMessage with a single
// vehicle position entity. States without a known position (not started,
// no schedule) produce a feed with a header and no entities.
func BuildFeed(status timeline.Status) *gtfs.FeedMessage {
	ts := uint64(status.AsOf.Unix())
	feed := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(ts),
		},
	}

	lat, lng, ok := position(status)
	if !ok {
		return feed
	}

	vehicle := &gtfs.VehiclePosition{
		Vehicle: &gtfs.VehicleDescriptor{
			Id:    proto.String(vehicleID),
			Label: proto.String("Santa's Sleigh"),
		},
		Position: &gtfs.Position{
			Latitude:  proto.Float32(float32(lat)),
			Longitude: proto.Float32(float32(lng)),
		},
		CurrentStatus: vehicleStatus(status.State).Enum(),
		Timestamp:     proto.Uint64(ts),
	}
	if stop := referenceStop(status); stop != nil {
		vehicle.StopId = proto.String(stop.Name)
	}

	feed.Entity = append(feed.Entity, &gtfs.FeedEntity{
		Id:      proto.String(fmt.Sprintf("%s-%d", vehicleID, ts)),
		Vehicle: vehicle,
	})
	return feed
}

// Marshal serializes the status as GTFS-RT protobuf bytes.
func Marshal(status timeline.Status) ([]byte, error) {
	data, err := proto.Marshal(BuildFeed(status))
	if err != nil {
		return nil, fmt.Errorf("failed to encode feed: %w", err)
	}
	return data, nil
}

// position resolves the coordinate to report. In transit the interpolated
// position is authoritative; at a stop or completed, the stop itself is.
func position(status timeline.Status) (float64, float64, bool) {
	if status.Position != nil {
		return status.Position.Lat, status.Position.Lng, true
	}
	if status.CurrentStop != nil {
		return status.CurrentStop.Latitude, status.CurrentStop.Longitude, true
	}
	return 0, 0, false
}

func referenceStop(status timeline.Status) *timeline.StopInfo {
	if status.CurrentStop != nil {
		return status.CurrentStop
	}
	return status.NextStop
}

func vehicleStatus(state timeline.State) gtfs.VehiclePosition_VehicleStopStatus {
	switch state {
	case timeline.StateAtStop, timeline.StateCompleted:
		return gtfs.VehiclePosition_STOPPED_AT
	default:
		return gtfs.VehiclePosition_IN_TRANSIT_TO
	}
}
