package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kjaganathan/adapt/internal/connector"
	"github.com/kjaganathan/adapt/internal/eval"
	"github.com/kjaganathan/adapt/internal/locator"
	"github.com/kjaganathan/adapt/internal/pipeline"
	"github.com/kjaganathan/adapt/internal/store"
	"github.com/kjaganathan/adapt/pkg/confignode"
	"github.com/spf13/cobra"
)

var (
	flagNamespace           string
	flagPipelineConfig      string
	flagDataIngestionConfig string
	flagAuthData            []string
	flagExternalInput       []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a pipeline config",
	RunE:  runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&flagNamespace, "namespace", "", "name of namespace, e.g. facebook, google")
	runCmd.Flags().StringVar(&flagPipelineConfig, "pipeline-config", "", "name of the pipeline config file")
	runCmd.Flags().StringVar(&flagDataIngestionConfig, "data-ingestion-config", "", "name of the data ingestion config file")
	runCmd.Flags().StringArrayVar(&flagAuthData, "auth-data", nil, "authorization data key=value pairs")
	runCmd.Flags().StringArrayVar(&flagExternalInput, "external-input", nil, "external input key=value pairs")
}

// parseKeyValuePairs parses a list of "key=value" strings. Each value is
// first tried as JSON (to recover non-string literals: ints, lists,
// bools, null — the Go analogue of the original's ast.literal_eval) and
// falls back to the raw string when it isn't valid JSON.
func parseKeyValuePairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("key-value pair must be in the form of key=value, got %q", pair)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			out[key] = decoded
		} else {
			out[key] = value
		}
	}
	return out, nil
}

func runPipeline(_ *cobra.Command, _ []string) error {
	authData, err := parseKeyValuePairs(flagAuthData)
	if err != nil {
		exitWithError("%v", err)
	}
	externalInput, err := parseKeyValuePairs(flagExternalInput)
	if err != nil {
		exitWithError("%v", err)
	}

	pipelineConfigPath, err := locator.Locate("pipeline", "", flagPipelineConfig)
	if err != nil {
		exitWithError("%v", err)
	}

	st := store.New()
	st.FromDict(authData)
	st.FromDict(externalInput)
	st.Add("namespace", flagNamespace)
	st.Add("data_ingestion_config", flagDataIngestionConfig)

	symbols := eval.NewSymbolTable()
	connector.RegisterPostProcessors(symbols)
	ev := eval.New(symbols)

	node, err := confignode.ReadFile(pipelineConfigPath)
	if err != nil {
		exitWithError("%v", err)
	}

	result, err := ev.Eval(node, st)
	if err != nil {
		exitWithError("%v", err)
	}

	items, err := buildPipelineItems(result)
	if err != nil {
		exitWithError("%v", err)
	}

	dataPipeline := pipeline.New()
	for _, item := range items {
		if err := dataPipeline.AddItem(item); err != nil {
			exitWithError("%v", err)
		}
	}
	if err := dataPipeline.Run(); err != nil {
		exitWithError("%v", err)
	}

	fmt.Println("Done!")
	return nil
}

// buildPipelineItems converts the evaluated pipeline config (a list of
// `pipeline { name, client, arguments, forward_to }` descriptors, spec
// §4.3) into runnable pipeline.Item values.
func buildPipelineItems(result eval.Value) ([]*pipeline.Item, error) {
	list, ok := result.(eval.List)
	if !ok {
		return nil, fmt.Errorf("cmd: pipeline config must evaluate to a list of pipeline descriptors, got %T", result)
	}

	items := make([]*pipeline.Item, 0, len(list))
	for _, descriptorVal := range list {
		descriptor, ok := descriptorVal.(eval.Map)
		if !ok {
			return nil, fmt.Errorf("cmd: pipeline descriptor must be a mapping, got %T", descriptorVal)
		}
		item, err := buildPipelineItem(descriptor)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func buildPipelineItem(descriptor eval.Map) (*pipeline.Item, error) {
	nameVal, ok := descriptor.Get("name")
	if !ok {
		return nil, fmt.Errorf("cmd: pipeline descriptor missing %q", "name")
	}
	name, err := eval.MustString(nameVal)
	if err != nil {
		return nil, err
	}

	processorVal, ok := descriptor.Get("processor")
	if !ok {
		return nil, fmt.Errorf("cmd: pipeline descriptor %q missing %q", name, "processor")
	}
	callable, ok := processorVal.(eval.Callable)
	if !ok {
		return nil, fmt.Errorf("cmd: pipeline descriptor %q processor must be callable, got %T", name, processorVal)
	}

	argumentsVal, _ := descriptor.Get("arguments")
	argumentsMap, _ := argumentsVal.(eval.Map)

	var forwardTo []pipeline.ForwardRule
	if forwardVal, ok := descriptor.Get("forward_to"); ok {
		forwardList, _ := forwardVal.(eval.List)
		for _, entryVal := range forwardList {
			entry, ok := entryVal.(eval.Map)
			if !ok {
				continue
			}
			target, _ := entry.Get("forward_to")
			asArg, _ := entry.Get("name")
			targetStr, err := eval.MustString(target)
			if err != nil {
				return nil, err
			}
			asArgStr, err := eval.MustString(asArg)
			if err != nil {
				return nil, err
			}
			forwardTo = append(forwardTo, pipeline.ForwardRule{ForwardTo: targetStr, Name: asArgStr})
		}
	}

	processor := func(arguments map[string]any) (any, error) {
		argsValue, err := eval.FromNative(arguments)
		if err != nil {
			return nil, err
		}
		argsMap, ok := argsValue.(eval.Map)
		if !ok {
			argsMap = eval.NewMap(nil, map[string]eval.Value{})
		}
		result, err := callable.Invoke(argsMap)
		if err != nil {
			return nil, err
		}
		return result.Native(), nil
	}

	return &pipeline.Item{
		Name:      name,
		Processor: processor,
		Arguments: argumentsMap.Native().(map[string]any),
		ForwardTo: forwardTo,
	}, nil
}
