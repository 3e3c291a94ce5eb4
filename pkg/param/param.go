package param

import (
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
)

var params *Params
var awsSession *session.Session

var paramLookup = map[string]string{
	"ANTHROPIC_API_KEY":          "/engineo/anthropic_api_key",
	"ENGINEO_PG_URI":             "/engineo/pg_uri",
	"ENGINEO_CENTRIFUGO_ADDRESS": "/engineo/centrifugo_address",
	"ENGINEO_CENTRIFUGO_API_KEY": "/engineo/centrifugo_api_key",
	"ENGINEO_SLACK_TOKEN":        "/engineo/slack_token",
	"ENGINEO_SLACK_CHANNEL":      "/engineo/slack_channel",
	"ENGINEO_APP_URL":            "",
	"ENGINEO_DRAFT_MODEL":        "",
	"ENGINEO_DRAFT_CONCURRENCY":  "",
}

type Params struct {
	AnthropicAPIKey   string
	PGURI             string
	CentrifugoAddress string
	CentrifugoAPIKey  string
	SlackToken        string
	SlackChannel      string
	AppURL            string
	DraftModel        string
	DraftConcurrency  string
}

func Get() Params {
	if params == nil {
		panic("params not initialized")
	}
	return *params
}

// Init loads params from the environment, or from SSM when USE_EC2_PARAMETERS=true.
// sess may be nil when SSM is not used.
func Init(sess *session.Session) error {
	awsSession = sess

	var paramsMap map[string]string
	if os.Getenv("USE_EC2_PARAMETERS") == "true" {
		if sess == nil {
			return fmt.Errorf("aws session is required to read ssm parameters")
		}
		p, err := GetParamsFromSSM(paramLookup)
		if err != nil {
			return fmt.Errorf("get from ssm: %w", err)
		}
		paramsMap = p
	} else {
		paramsMap = GetParamsFromEnv(paramLookup)
	}

	params = fromMap(paramsMap)
	return nil
}

func fromMap(m map[string]string) *Params {
	p := &Params{
		AnthropicAPIKey:   m["ANTHROPIC_API_KEY"],
		PGURI:             m["ENGINEO_PG_URI"],
		CentrifugoAddress: m["ENGINEO_CENTRIFUGO_ADDRESS"],
		CentrifugoAPIKey:  m["ENGINEO_CENTRIFUGO_API_KEY"],
		SlackToken:        m["ENGINEO_SLACK_TOKEN"],
		SlackChannel:      m["ENGINEO_SLACK_CHANNEL"],
		AppURL:            m["ENGINEO_APP_URL"],
		DraftModel:        m["ENGINEO_DRAFT_MODEL"],
		DraftConcurrency:  m["ENGINEO_DRAFT_CONCURRENCY"],
	}
	if p.AppURL == "" {
		p.AppURL = "https://app.engineo.ai"
	}
	return p
}

func GetParamsFromSSM(paramLookup map[string]string) (map[string]string, error) {
	svc := ssm.New(awsSession)

	params := map[string]string{}
	reverseLookup := map[string][]string{}

	lookup := []*string{}
	for envName, ssmName := range paramLookup {
		if ssmName == "" {
			params[envName] = os.Getenv(envName)
			continue
		}

		lookup = append(lookup, aws.String(ssmName))
		reverseLookup[ssmName] = append(reverseLookup[ssmName], envName)
	}

	// GetParameters takes at most 10 names per call
	for _, names := range chunkSlice(lookup, 10) {
		output, err := svc.GetParameters(&ssm.GetParametersInput{
			Names:          names,
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return params, fmt.Errorf("call get parameters: %w", err)
		}

		for _, p := range output.InvalidParameters {
			log.Printf("Ssm param %s invalid", *p)
		}

		for _, p := range output.Parameters {
			for _, envName := range reverseLookup[*p.Name] {
				params[envName] = *p.Value
			}
		}
	}

	return params, nil
}

func GetParamsFromEnv(paramLookup map[string]string) map[string]string {
	params := map[string]string{}
	for envName := range paramLookup {
		params[envName] = os.Getenv(envName)
	}
	return params
}

func chunkSlice(s []*string, n int) [][]*string {
	var chunked [][]*string
	for i := 0; i < len(s); i += n {
		end := i + n
		if end > len(s) {
			end = len(s)
		}
		chunked = append(chunked, s[i:end])
	}
	return chunked
}
