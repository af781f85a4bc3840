/*
Package functions implements the HTTP functions served under /api.

Every function runs the same pipeline:

 1. Extract the payload field from the route parameter or, failing that,
    from the JSON object in the request body.
 2. Decode it (integer, string, or base64 for binary payloads).
 3. Make exactly one library or service call.
 4. Encode the result as plain text or JSON with status 200.

Failures pass through a single boundary per request. An *InputError
(missing field, wrong type, negative number) becomes 400 with a fixed
message. Any other error, including a base64 decode failure, becomes 500
with "Internal error: " followed by the error text. A body larger than
MaxBodyBytes is rejected with 413.

# Functions

  - get_factorial/{number}: "The factorial of 5 is 120."
  - get_tokens_number/{string}: "There are 3 tokens in 'hello world!'."
  - transform_image: {"image": "<base64 grayscale PNG>"}
  - speech_to_text: {"text": "<transcript>"}

The speech function expects 16 kHz mono signed 16-bit PCM with the RIFF
header already removed. The format is not checked server-side.
*/
package functions
