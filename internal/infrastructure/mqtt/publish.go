package mqtt

import "fmt"

// maxPayloadSize caps outbound messages at 1 MB, matching common
// broker defaults. Device state documents are a few hundred bytes;
// hitting this limit means something upstream went wrong.
const maxPayloadSize = 1 << 20

// Publish sends payload to topic at the given QoS.
//
// Retained publishes replace the broker's stored message for the
// topic, so late subscribers immediately see the latest state. State
// topics want retained; command and ack topics do not.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}
