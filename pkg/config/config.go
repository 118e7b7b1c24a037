/*
 * Copyright 2021-present by Nedim Sabic Sabic
 * https://www.fibratus.io
 * All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	uerrors "github.com/rabbitstack/usertable/pkg/errors"
	"github.com/rabbitstack/usertable/pkg/handle"
	"github.com/rabbitstack/usertable/pkg/handle/types"
	"github.com/rabbitstack/usertable/pkg/outputs/console"
	"github.com/rabbitstack/usertable/pkg/util/log"
	"github.com/rabbitstack/usertable/pkg/util/multierror"
	"github.com/rabbitstack/usertable/pkg/util/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configFile   = "config-file"
	imageFile    = "image"
	profileName  = "profile.name"
	profilePaths = "profile.paths"

	handlesPID       = "userhandles.pid"
	handlesType      = "userhandles.type"
	handlesFree      = "userhandles.free"
	handlesDerefFree = "userhandles.deref-free"
)

var errOutputConfig = func(err error) error { return fmt.Errorf("console output invalid config: %v", err) }

// ProfileConfig selects the layout profile that decodes the image.
type ProfileConfig struct {
	// Name overrides the profile recorded in the image metadata.
	Name string `json:"name" yaml:"name"`
	// Paths lists additional profile files or directories.
	Paths []string `json:"paths" yaml:"paths"`
}

// HandlesConfig contains the handle table walk filters.
type HandlesConfig struct {
	// PID restricts the walk to the entries owned by the process. Negative values disable the filter.
	PID int64 `json:"pid" yaml:"pid"`
	// Type restricts the walk to the entries of the given type.
	Type string `json:"type" yaml:"type"`
	// IncludeFree yields free slots too.
	IncludeFree bool `json:"free" yaml:"free"`
	// DerefFree resolves owners and objects of free slots.
	DerefFree bool `json:"deref-free" yaml:"deref-free"`
}

// Config stores configuration options for fine-tuning the behaviour of usertable.
type Config struct {
	// Image is the path of the memory snapshot image.
	Image string `json:"image" yaml:"image"`
	// Profile contains layout profile settings.
	Profile ProfileConfig `json:"profile" yaml:"profile"`
	// Handles contains the handle table walk filters.
	Handles HandlesConfig `json:"userhandles" yaml:"userhandles"`
	// Output stores the console output config.
	Output console.Config `json:"output" yaml:"output"`
	// Log contains log-specific configuration options
	Log log.Config `json:"logging" yaml:"logging"`

	flags *pflag.FlagSet
	viper *viper.Viper
	opts  *Options
}

// Options determines which config flags are toggled depending on the command type.
type Options struct {
	walk     bool
	image    bool
	profiles bool
}

// Option is the type alias for the config option.
type Option func(*Options)

// WithWalk determines one of the handle table walk commands is executed.
func WithWalk() Option {
	return func(o *Options) {
		o.walk = true
	}
}

// WithImage determines one of the image commands is executed.
func WithImage() Option {
	return func(o *Options) {
		o.image = true
	}
}

// WithProfiles determines the profiles command is executed.
func WithProfiles() Option {
	return func(o *Options) {
		o.profiles = true
	}
}

// NewWithOpts builds a new configuration store from a variety of sources such as configuration files,
// environment variables or command line flags.
func NewWithOpts(options ...Option) *Config {
	opts := &Options{}

	for _, opt := range options {
		opt(opts)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	c := &Config{
		Log:   log.Config{},
		flags: new(pflag.FlagSet),
		viper: v,
		opts:  opts,
	}

	if opts.walk {
		console.AddFlags(c.flags)
	}

	c.addFlags()

	return c
}

// MustViperize adds the flag set to the Cobra command and binds them within the Viper flags.
func (c *Config) MustViperize(cmd *cobra.Command) {
	cmd.PersistentFlags().AddFlagSet(c.flags)
	if err := c.viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

// Init setups the configuration state from Viper.
func (c *Config) Init() error {
	c.Log.InitFromViper(c.viper)

	c.Image = c.viper.GetString(imageFile)
	c.Profile.Name = c.viper.GetString(profileName)
	c.Profile.Paths = c.viper.GetStringSlice(profilePaths)

	if c.opts.walk {
		c.Handles.PID = c.viper.GetInt64(handlesPID)
		c.Handles.Type = c.viper.GetString(handlesType)
		c.Handles.IncludeFree = c.viper.GetBool(handlesFree)
		c.Handles.DerefFree = c.viper.GetBool(handlesDerefFree)
		if err := c.tryLoadOutput(); err != nil {
			return err
		}
	}
	if (c.opts.walk || c.opts.image) && c.Image == "" {
		return uerrors.ErrImageRequired
	}
	return nil
}

func (c *Config) tryLoadOutput() error {
	output := c.viper.AllSettings()["output"]
	if output == nil {
		return nil
	}
	mapping, ok := output.(map[string]interface{})
	if !ok {
		return fmt.Errorf("expected map[string]interface{} type for output but found %s", reflect.TypeOf(output))
	}
	if err := decode(mapping, &c.Output); err != nil {
		return errOutputConfig(err)
	}
	if _, err := console.ParseFormat(c.Output.Format); err != nil {
		return errOutputConfig(err)
	}
	return nil
}

// Options builds the handle table walk options from the configured filters.
func (c *Config) Options() (handle.Options, error) {
	opts := handle.Options{
		IncludeFree: c.Handles.IncludeFree,
		DerefFree:   c.Handles.DerefFree,
	}
	if c.Handles.PID >= 0 {
		pid := uint64(c.Handles.PID)
		opts.PID = &pid
	}
	if c.Handles.Type != "" {
		typ, err := types.ParseType(c.Handles.Type)
		if err != nil {
			return opts, err
		}
		opts.Type = &typ
	}
	return opts, nil
}

// TryLoadFile attempts to load the configuration file from specified path on the file system.
func (c *Config) TryLoadFile(file string) error {
	c.viper.SetConfigFile(file)
	return c.viper.ReadInConfig()
}

// Validate ensures that all configuration options provided by user have the expected values. It returns
// a list of validation errors prefixed with the offending configuration property/flag.
func (c *Config) Validate() error {
	// we'll first validate the structure and values of the config file
	file := c.viper.GetString(configFile)
	var out interface{}
	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	switch filepath.Ext(file) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &out)
	case ".json":
		err = json.Unmarshal(b, &out)
	default:
		return fmt.Errorf("%s is not a supported config file extension", filepath.Ext(file))
	}
	if err != nil {
		return fmt.Errorf("couldn't read the config file: %v", err)
	}
	// an empty file decodes to nil
	if out != nil {
		valid, errs := schema.Validate(configSchema, out)
		if !valid || len(errs) > 0 {
			return fmt.Errorf("invalid config: %v", multierror.Wrap(errs...))
		}
	}
	// now validate the Viper config flags
	valid, errs := schema.Validate(configSchema, c.viper.AllSettings())
	if !valid || len(errs) > 0 {
		return fmt.Errorf("invalid config: %v", multierror.Wrap(errs...))
	}
	return nil
}

// File returns the config file path.
func (c *Config) File() string { return c.viper.GetString(configFile) }

func (c *Config) addFlags() {
	c.flags.String(configFile, defaultConfigFile(), "Indicates the location of the configuration file")
	if c.opts.walk || c.opts.image {
		c.flags.StringP(imageFile, "i", "", "The path of the memory snapshot image")
	}
	if c.opts.walk {
		c.flags.StringP(profileName, "p", "", "Overrides the layout profile recorded in the image")
		c.flags.Int64(handlesPID, -1, "Only shows the entries owned by the process with the given identifier")
		c.flags.StringP(handlesType, "t", "", "Only shows the entries of the given type, e.g. TYPE_WINDOW or window")
		c.flags.Bool(handlesFree, false, "Includes free handle table slots")
		c.flags.Bool(handlesDerefFree, false, "Resolves owners and objects of free slots. Free slots may reference stale or reused memory")
	}
	if c.opts.walk || c.opts.profiles {
		c.flags.StringSlice(profilePaths, []string{}, "Comma-separated list of additional profile files or directories")
	}
	c.Log.AddFlags(c.flags)
}

func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "usertable.yml"
	}
	return filepath.Join(dir, "usertable", "usertable.yml")
}
