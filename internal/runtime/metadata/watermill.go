package metadata

import "github.com/ThreeDotsLabs/watermill/message"

// ToWatermill converts delivery metadata into a Watermill map.
func ToWatermill(md Metadata) message.Metadata {
	wm := make(message.Metadata, len(md))
	for k, v := range md {
		wm[k] = v
	}
	return wm
}
