package client

import (
	"encoding/json"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/battlens/battlens/pkg/battery"
	"github.com/battlens/battlens/pkg/config"
)

func (c *Client) GetSnapshot() (*battery.SystemSnapshot, error) {
	ret, err := c.Get("/snapshot")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get snapshot")
	}

	var snap battery.SystemSnapshot
	if err := json.Unmarshal([]byte(ret), &snap); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal snapshot")
	}

	return &snap, nil
}

func (c *Client) Refresh() (*battery.SystemSnapshot, error) {
	ret, err := c.Post("/refresh", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to refresh snapshot")
	}

	var snap battery.SystemSnapshot
	if err := json.Unmarshal([]byte(ret), &snap); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal snapshot")
	}

	return &snap, nil
}

func (c *Client) GetPercentage() (float64, error) {
	ret, err := c.Get("/percentage")
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to get percentage")
	}
	pct, err := strconv.ParseFloat(ret, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to parse percentage response")
	}
	return pct, nil
}

func (c *Client) GetState() (battery.PowerState, error) {
	ret, err := c.Get("/state")
	if err != nil {
		return battery.Unknown, pkgerrors.Wrapf(err, "failed to get power state")
	}

	var state battery.PowerState
	if err := json.Unmarshal([]byte(ret), &state); err != nil {
		return battery.Unknown, pkgerrors.Wrapf(err, "failed to unmarshal power state")
	}

	return state, nil
}

func (c *Client) GetPresent() (bool, error) {
	ret, err := c.Get("/present")
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to check battery presence")
	}
	return parseBoolResponse(ret)
}

func (c *Client) GetTimeRemaining() (time.Duration, error) {
	ret, err := c.Get("/time-remaining")
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to get time remaining")
	}
	seconds, err := strconv.ParseInt(ret, 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to parse time remaining response")
	}
	return time.Duration(seconds) * time.Second, nil
}

func (c *Client) GetWear() (float64, error) {
	ret, err := c.Get("/wear")
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to get wear percentage")
	}
	wear, err := strconv.ParseFloat(ret, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to parse wear response")
	}
	return wear, nil
}

func (c *Client) GetFastCharge() (bool, error) {
	ret, err := c.Get("/fast-charge")
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to get fast charge status")
	}
	return parseBoolResponse(ret)
}

func (c *Client) GetSources() ([]battery.SourceStatus, error) {
	ret, err := c.Get("/sources")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get source statuses")
	}

	var sources []battery.SourceStatus
	if err := json.Unmarshal([]byte(ret), &sources); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal source statuses")
	}

	return sources, nil
}

func (c *Client) SetRefreshInterval(d time.Duration) (string, error) {
	return c.Put("/refresh-interval", strconv.Itoa(int(d/time.Second)))
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	// Remove "" around JSON string. I don't want to use a JSON decoder just for this.
	ret = ret[1 : len(ret)-1] // remove the surrounding quotes
	return ret, nil
}

func parseBoolResponse(resp string) (bool, error) {
	switch resp {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, pkgerrors.Errorf("unexpected response: %s", resp)
	}
}
