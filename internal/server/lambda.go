package server

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// HandleAPIGateway serves an API Gateway proxy event the same way
// handleUpdate serves an HTTP request.
func (s *Server) HandleAPIGateway(ctx context.Context, ev events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	client := ev.RequestContext.Identity.SourceIP
	if client == "" {
		client = "UNKNOWN"
	}

	body := ev.Body
	if ev.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			s.Log.Info("client sent an undecodable body", "client", client, "error", err.Error())
			return textResponse(http.StatusBadRequest, msgMissingFields), nil
		}
		body = string(decoded)
	}

	req, err := decodeRequest(strings.NewReader(body))
	if err != nil {
		s.Log.Info("client did not provide all information", "client", client, "error", err.Error())
		return textResponse(http.StatusBadRequest, msgMissingFields), nil
	}
	req.SourceIP = client

	return textResponse(Response(s.Updater.Update(ctx, req))), nil
}

// ConfigErrorHandler answers every event with a configuration error. The
// Lambda entrypoint uses it when the service cannot be built.
func ConfigErrorHandler(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return textResponse(http.StatusInternalServerError, "Configuration error"), nil
}

func textResponse(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:       body,
	}
}
