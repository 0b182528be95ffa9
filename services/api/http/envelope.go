package http

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

func responseHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin": "*",
		"Content-Type":                "application/json",
	}
}

// respond builds an API Gateway proxy response with a JSON body.
func respond(status int, body any) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		raw, _ = json.Marshal(errorBody{Error: err.Error()})
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    responseHeaders(),
		Body:       string(raw),
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type statusBody struct {
	Status string `json:"status"`
}

func success(body any) events.APIGatewayProxyResponse {
	return respond(http.StatusOK, body)
}

func statusOK() events.APIGatewayProxyResponse {
	return success(statusBody{Status: "ok"})
}

func badRequest(msg string) events.APIGatewayProxyResponse {
	return respond(http.StatusBadRequest, errorBody{Error: msg})
}

func unauthorized() events.APIGatewayProxyResponse {
	return respond(http.StatusUnauthorized, errorBody{Error: "missing or invalid API key"})
}

func notFound(msg string) events.APIGatewayProxyResponse {
	return respond(http.StatusNotFound, errorBody{Error: msg})
}

func serverError(msg string) events.APIGatewayProxyResponse {
	return respond(http.StatusInternalServerError, errorBody{Error: msg})
}
